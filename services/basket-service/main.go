package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	"github.com/yashrajoria/swn-shop/pkg/kafka"
	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/common/middleware"

	"github.com/yashrajoria/swn-shop/services/basket-service/controllers"
	"github.com/yashrajoria/swn-shop/services/basket-service/repository"
	"github.com/yashrajoria/swn-shop/services/basket-service/routes"
	"github.com/yashrajoria/swn-shop/services/basket-service/services"
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

	cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, "basket-service")
	if err != nil {
		panic("failed to initialize cloudwatch logs: " + err.Error())
	}
	log, err := logger.InitializeWithWriter(cfg.Env, cwLogs)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// --- Stores ---
	var repo repository.BasketRepository
	var closeStore func() error
	switch cfg.BasketStore {
	case "redis":
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		repo = repository.NewRedisBasketRepository(client, cfg.BasketTTL)
		closeStore = client.Close
	default:
		repo = repository.NewDynamoBasketRepository(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.PrimaryKey)
	}

	// --- Event bus ---
	var publisher eventbus.Publisher
	switch cfg.EventBusBackend {
	case "sns":
		publisher = aws_pkg.NewSNSPublisher(awsCfg, cfg.SNSTopicArn)
	case "kafka":
		writer := kafka.NewClient(cfg.KafkaBrokers).NewWriter(cfg.KafkaTopic)
		defer writer.Close()
		publisher = kafka.NewPublisher(writer)
	default:
		publisher = aws_pkg.NewEventBridgePublisher(awsCfg, cfg.EventBusName)
	}
	log.Info("Basket dependencies ready",
		zap.String("store", cfg.BasketStore),
		zap.String("bus_backend", cfg.EventBusBackend),
		zap.String("endpoint", sdkaws.ToString(awsCfg.BaseEndpoint)),
	)

	metricsClient := aws_pkg.NewMetricsClient(awsCfg)
	basketService := services.NewBasketService(repo)
	orchestrator := services.NewCheckoutOrchestrator(repo, publisher, services.EventRouting{
		Source:     cfg.EventSource,
		DetailType: cfg.EventDetailType,
		BusName:    cfg.EventBusName,
	}, metricsClient)
	basketController := controllers.NewBasketController(basketService, orchestrator)

	// --- HTTP ---
	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/600), 100, 5*time.Minute)
	go limiter.Run(ctx)
	serverMetrics := middleware.NewServerMetrics(prometheus.DefaultRegisterer, "basket")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(log),
		middleware.RequestLogger(log),
		serverMetrics.Middleware(),
		middleware.MetricsMiddleware(metricsClient, "basket-service"),
		limiter.Middleware(),
		middleware.Timeout(30*time.Second),
	)
	routes.RegisterBasketRoutes(r, basketController)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Basket Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down Basket Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			log.Error("Failed to close basket store", zap.Error(err))
		}
	}
	log.Info("Basket Service stopped gracefully")
}
