package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/swn-shop/api-gateway/utils"
)

// Targets are the downstream base URLs, without a trailing slash.
type Targets struct {
	Product string
	Basket  string
	Order   string
}

func RegisterAllRoutes(r *gin.Engine, fwd *utils.Forwarder, t Targets) {
	proxy := func(group, base string) {
		h := fwd.To(utils.ForwardOptions{TargetBase: base + group})
		r.Any(group, h)
		r.Any(group+"/*any", h)
	}

	proxy("/product", t.Product)
	proxy("/basket", t.Basket)
	proxy("/order", t.Order)
}
