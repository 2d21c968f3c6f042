package utils

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/common/middleware"
)

type ForwardOptions struct {
	TargetBase  string
	StripPrefix string
}

var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder relays gin requests to a downstream service.
type Forwarder struct {
	client *http.Client
	logger *zap.Logger
}

func NewForwarder(client *http.Client, logger *zap.Logger) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{client: client, logger: logger}
}

// To returns a handler forwarding to opts.TargetBase plus the *any suffix.
func (f *Forwarder) To(opts ForwardOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.Forward(c, opts)
	}
}

func (f *Forwarder) Forward(c *gin.Context, opts ForwardOptions) {
	targetPath := c.Param("any")
	if opts.StripPrefix != "" {
		targetPath = strings.TrimPrefix(targetPath, opts.StripPrefix)
	}

	targetURL := opts.TargetBase + targetPath
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	f.logger.Debug("Forwarding request",
		zap.String("method", c.Request.Method),
		zap.String("url", targetURL),
	)

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		f.logger.Error("Failed to create forward request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	for k, v := range c.Request.Header {
		req.Header[k] = v
	}
	if rid := c.GetString(logger.RequestIDKey); rid != "" {
		req.Header.Set(middleware.RequestIDHeader, rid)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("Failed to forward request", zap.String("url", targetURL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "service unreachable"})
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		lower := strings.ToLower(k)
		// CORS is answered by the gateway itself.
		if strings.HasPrefix(lower, "access-control-") || hopByHop[lower] {
			continue
		}
		c.Header(k, strings.Join(v, ","))
	}
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		f.logger.Error("Failed to copy response body", zap.Error(err))
	}
}
