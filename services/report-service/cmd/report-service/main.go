package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/metrics"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/migrate"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/shared"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/supervisor"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/cache"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/config"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/consumer"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/contacts"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/database"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/export"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/handlers"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/processor"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/producer"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/retry"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/router"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/worker"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/migrations"
)

func main() {
	// Parse command-line flags with environment variable fallbacks
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger := shared.SetupLogging(cfg.LogLevel)

	slog.Info("Starting report service",
		"http_port", cfg.HTTPPort,
		"kafka_brokers", cfg.KafkaBrokers,
		"report_request_topic", cfg.ReportRequestTopic,
		"report_created_topic", cfg.ReportCreatedTopic,
		"report_dlq_topic", cfg.ReportDLQTopic,
		"consumer_group_id", cfg.ConsumerGroupID,
		"postgres_dsn", shared.MaskDSN(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
		"contact_service_url", cfg.ContactServiceURL,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		slog.Error("Report service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Report service stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	slog.Info("Connecting to PostgreSQL database")
	db, err := database.NewDB(cfg.PostgresDSN)
	if err != nil {
		slog.Info("Tip: Start Postgres with 'docker compose up -d postgres' or ensure Postgres is running")
		return err
	}
	defer db.Close()

	if cfg.Migrate {
		if err := migrate.Up(ctx, db.Conn(), migrations.FS); err != nil {
			return err
		}
	}

	// Redis backs the report cache and the metrics snapshots; both are optional.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		slog.Info("Connecting to Redis", "addr", cfg.RedisAddr)
		redisClient, err = shared.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, running without cache and metrics snapshots", "error", err)
		} else {
			defer redisClient.Close()
			slog.Info("Successfully connected to Redis")
		}
	}

	metricsCollector := metrics.NewCollector(metrics.ReportService, redisClient)
	metricsCollector.Start(ctx)
	defer metricsCollector.Stop()

	contactClient, err := contacts.NewClient(cfg.ContactServiceURL, contacts.WithTimeout(cfg.ContactTimeout))
	if err != nil {
		return err
	}

	requestPublisher, err := producer.NewRequestPublisher(cfg.KafkaBrokers, cfg.ReportRequestTopic)
	if err != nil {
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		return err
	}
	defer requestPublisher.Close()

	createdPublisher, err := producer.NewCreatedPublisher(cfg.KafkaBrokers, cfg.ReportCreatedTopic)
	if err != nil {
		return err
	}
	defer createdPublisher.Close()

	aggOpts := []processor.Option{processor.WithMetrics(metricsCollector)}
	if redisClient != nil {
		aggOpts = append(aggOpts, processor.WithCache(cache.New(redisClient, cfg.CacheTTL)))
	}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return err
	}
	if exporter != nil {
		aggOpts = append(aggOpts, processor.WithExporter(exporter))
	}

	aggregator, err := processor.NewAggregator(contactClient, db, createdPublisher, aggOpts...)
	if err != nil {
		return err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries
	workerOpts := []worker.Option{
		worker.WithMetrics(metricsCollector),
		worker.WithRetry(retryCfg),
		worker.WithProcessTimeout(cfg.ProcessTimeout),
	}
	if cfg.ReportDLQTopic != "" {
		dlq, err := producer.NewDeadLetterWriter(cfg.KafkaBrokers, cfg.ReportDLQTopic)
		if err != nil {
			return err
		}
		defer dlq.Close()
		workerOpts = append(workerOpts, worker.WithDeadLetter(dlq))
	}

	subscribe := func() (worker.Subscription, error) {
		c, err := consumer.NewConsumer(cfg.KafkaBrokers, cfg.ReportRequestTopic, cfg.ConsumerGroupID, cfg.PollWait)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	reportWorker, err := worker.New(subscribe, aggregator, workerOpts...)
	if err != nil {
		return err
	}

	var snapshots handlers.SnapshotReader
	if redisClient != nil {
		snapshots = metrics.NewReader(redisClient)
	}
	h := handlers.NewHandlers(requestPublisher, aggregator, db, snapshots)
	srv := router.NewServer(cfg.HTTPPort, router.NewRouter(h, router.Config{
		CORSOrigins:  cfg.Origins(),
		RateLimitRPS: cfg.RateLimitRPS,
	}))

	tree := supervisor.NewTree("report-service", logger, supervisor.TreeConfig{ShutdownTimeout: cfg.StopTimeout})
	tree.AddPipelineService(reportWorker)
	tree.AddAPIService(supervisor.NewHTTPService("report-api", srv, 10*time.Second))

	slog.Info("Report service ready", "addr", srv.Addr)
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		slog.Warn("Services did not stop within the shutdown timeout", "count", len(unstopped))
	}
	return nil
}

// newExporter picks S3 when a bucket is configured, else a local directory,
// else no export at all.
func newExporter(ctx context.Context, cfg *config.Config) (*export.Exporter, error) {
	switch {
	case cfg.S3Bucket != "":
		store, err := export.NewS3Store(ctx, export.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return export.NewExporter(store, "reports"), nil
	case cfg.ExportDir != "":
		store, err := export.NewLocalStore(cfg.ExportDir)
		if err != nil {
			return nil, err
		}
		return export.NewExporter(store, "reports"), nil
	default:
		return nil, nil
	}
}
