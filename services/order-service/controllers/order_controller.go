package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/swn-shop/services/order-service/services"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, inv services.Invocation) (services.Result, error)
}

// OrderController turns gin requests into HTTPRequest invocations so the
// HTTP server and the Lambda entry share one code path.
type OrderController struct {
	dispatcher Dispatcher
}

func NewOrderController(d Dispatcher) *OrderController {
	return &OrderController{dispatcher: d}
}

// Handle serves every /order route, including methods with no route.
func (oc *OrderController) Handle(c *gin.Context) {
	inv := services.HTTPRequest{
		Method:     c.Request.Method,
		PathParams: map[string]string{},
		Query:      map[string]string{},
	}
	for _, p := range c.Params {
		inv.PathParams[p.Key] = p.Value
	}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			inv.Query[k] = v[0]
		}
	}

	res, err := oc.dispatcher.Dispatch(c.Request.Context(), inv)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res.Body)
}
