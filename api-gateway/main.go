package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yashrajoria/swn-shop/api-gateway/routes"
	"github.com/yashrajoria/swn-shop/api-gateway/utils"
	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/common/middleware"
)

func main() {
	cfg := LoadConfig()

	log, err := logger.Initialize(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting API Gateway...")

	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/600), 100, 5*time.Minute)
	go limiter.Run(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(log),
		middleware.RequestLogger(log),
		limiter.Middleware(),
	)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	fwd := utils.NewForwarder(&http.Client{Timeout: cfg.UpstreamTimeout}, log.Named("forwarder"))
	routes.RegisterAllRoutes(r, fwd, routes.Targets{
		Product: cfg.ProductServiceURL,
		Basket:  cfg.BasketServiceURL,
		Order:   cfg.OrderServiceURL,
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("API Gateway listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Gateway forced to shutdown", zap.Error(err))
	}
	log.Info("API Gateway stopped")
}
