package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/common/middleware"

	"github.com/yashrajoria/swn-shop/services/product-service/controllers"
	"github.com/yashrajoria/swn-shop/services/product-service/repository"
	"github.com/yashrajoria/swn-shop/services/product-service/routes"
	"github.com/yashrajoria/swn-shop/services/product-service/services"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		panic("failed to load aws config: " + err.Error())
	}

	cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, "product-service")
	if err != nil {
		panic("failed to initialize cloudwatch logs: " + err.Error())
	}
	log, err := logger.InitializeWithWriter(cfg.Env, cwLogs)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	var repo repository.ProductRepository = repository.NewDynamoProductRepository(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if cfg.RedisURL != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Product cache disabled; Redis unavailable", zap.Error(err))
		} else {
			defer rdb.Close()
			repo = repository.NewCachedProductRepository(repo, rdb, cfg.CacheTTL, log.Named("product-cache"))
		}
	}

	var presigner services.Presigner
	if cfg.ImageBucket != "" {
		presigner = aws_pkg.NewObjectPresigner(awsCfg, cfg.ImageBucket)
	}
	productController := controllers.NewProductController(services.NewProductService(repo, presigner, cfg.ImagePrefix))

	metricsClient := aws_pkg.NewMetricsClient(awsCfg)
	serverMetrics := middleware.NewServerMetrics(prometheus.DefaultRegisterer, "product")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(log),
		middleware.RequestLogger(log),
		serverMetrics.Middleware(),
		middleware.MetricsMiddleware(metricsClient, "product-service"),
		middleware.Timeout(30*time.Second),
	)
	routes.RegisterProductRoutes(r, productController)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Product Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down Product Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Product Service stopped gracefully")
}
