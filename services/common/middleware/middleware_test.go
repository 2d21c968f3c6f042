package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/common/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	r := gin.New()
	r.Use(middleware.RequestID(base), middleware.RequestLogger(base))
	r.GET("/basket/:userName", func(c *gin.Context) {
		logger.FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	t.Run("Success - propagates header id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/basket/swn", nil)
		req.Header.Set(middleware.RequestIDHeader, "rid-42")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, "rid-42", rec.Header().Get(middleware.RequestIDHeader))
		inside := logs.FilterMessage("inside handler").All()
		require.Len(t, inside, 1)
		assert.Equal(t, "rid-42", inside[0].ContextMap()["request_id"])

		lines := logs.FilterMessage("http_request").All()
		require.NotEmpty(t, lines)
		last := lines[len(lines)-1]
		assert.Equal(t, zapcore.InfoLevel, last.Level)
		assert.Equal(t, "/basket/:userName", last.ContextMap()["route"])
	})

	t.Run("Success - generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/basket/swn", nil))
		assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 36)
	})

	t.Run("Failure - 5xx logged at error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		lines := logs.FilterMessage("http_request").FilterField(zap.Int("status", 500)).All()
		require.Len(t, lines, 1)
		assert.Equal(t, zapcore.ErrorLevel, lines[0].Level)
	})
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.String(http.StatusOK, c.Request.Context().Err().Error())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, context.DeadlineExceeded.Error(), rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestServerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewServerMetrics(reg, "order")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/order", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/order", nil))
	}

	expected := `
# HELP swn_order_http_requests_total Total number of HTTP requests.
# TYPE swn_order_http_requests_total counter
swn_order_http_requests_total{method="GET",route="/order",status="200"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "swn_order_http_requests_total"))
}
