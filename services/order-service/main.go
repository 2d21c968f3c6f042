package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/kafka"
	"github.com/yashrajoria/swn-shop/pkg/queue"
	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/common/middleware"

	"github.com/yashrajoria/swn-shop/services/order-service/controllers"
	"github.com/yashrajoria/swn-shop/services/order-service/repository"
	"github.com/yashrajoria/swn-shop/services/order-service/routes"
	"github.com/yashrajoria/swn-shop/services/order-service/services"
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

	cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, "order-service")
	if err != nil {
		panic("failed to initialize cloudwatch logs: " + err.Error())
	}
	log, err := logger.InitializeWithWriter(cfg.Env, cwLogs)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// --- Store ---
	repo, closeStore, err := repository.Open(ctx, repository.StoreOptions{
		Store:       cfg.OrderStore,
		TableName:   cfg.TableName,
		DatabaseURL: cfg.DatabaseURL,
		AWS:         awsCfg,
	})
	if err != nil {
		log.Fatal("Failed to open order store", zap.Error(err))
	}
	defer closeStore()

	metricsClient := aws_pkg.NewMetricsClient(awsCfg)
	writer := services.NewOrderWriter(repo, services.WithMetrics(metricsClient))
	dispatcher := services.NewDispatcher(writer, repo, cfg.EventDetailType)

	// --- Queue ---
	queueURL := cfg.QueueURL
	if queueURL == "" {
		queueURL, err = aws_pkg.GetQueueURL(ctx, awsCfg, cfg.QueueName)
		if err != nil {
			log.Fatal("Failed to resolve order queue", zap.String("queue", cfg.QueueName), zap.Error(err))
		}
	}
	sqsQueue := aws_pkg.NewSQSQueue(awsCfg, queueURL)
	sqsQueue.WaitTime = cfg.QueueWait
	poller := services.NewQueueConsumer(sqsQueue, queue.PollerConfig{
		BatchSize:         cfg.BatchSize,
		VisibilityTimeout: cfg.VisibilityTimeout,
	}, dispatcher, metricsClient, log)

	log.Info("Order dependencies ready",
		zap.String("store", cfg.OrderStore),
		zap.String("queue_url", queueURL),
		zap.String("endpoint", sdkaws.ToString(awsCfg.BaseEndpoint)),
	)

	// --- HTTP ---
	serverMetrics := middleware.NewServerMetrics(prometheus.DefaultRegisterer, "order")
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(log),
		middleware.RequestLogger(log),
		serverMetrics.Middleware(),
		middleware.MetricsMiddleware(metricsClient, "order-service"),
		middleware.Timeout(30*time.Second),
	)
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(dispatcher))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Order Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := poller.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if kc := kafka.NewClient(cfg.KafkaBrokers); kc.Enabled() {
		reader := kc.NewReader(cfg.KafkaTopic, cfg.KafkaGroupID)
		defer reader.Close()
		g.Go(func() error {
			err := kafka.Consume(gctx, reader, services.BusEventHandler(dispatcher, log), log.Named("order-bus"))
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down Order Service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Order Service exited with error", zap.Error(err))
		return
	}
	log.Info("Order Service stopped gracefully")
}
