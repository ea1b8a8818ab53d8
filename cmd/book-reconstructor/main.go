package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/muhammadchandra19/orderbook-recon/internal/app/engine"
	"github.com/muhammadchandra19/orderbook-recon/internal/infrastructure/questdb/event"
	eventreader "github.com/muhammadchandra19/orderbook-recon/internal/usecase/event-reader"
	snapshot "github.com/muhammadchandra19/orderbook-recon/internal/usecase/snapshot"
	"github.com/muhammadchandra19/orderbook-recon/pkg/config"
	"github.com/muhammadchandra19/orderbook-recon/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
	"github.com/muhammadchandra19/orderbook-recon/pkg/questdb"
	"github.com/muhammadchandra19/orderbook-recon/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg = &config.Config{}
	err = config.Load(cfg)
	if err != nil {
		panic(err)
	}

	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}

	log = logger
}

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = []string{cfg.RedisConfig.Addrs}
	redisConfig.Password = cfg.RedisConfig.Password
	redisConfig.Username = cfg.RedisConfig.Username
	redisConfig.DB = cfg.RedisConfig.DB
	// Initialize Redis client
	rclient := redis.NewClient(log, redisConfig)

	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	// Event archiving is optional and requires a reachable QuestDB.
	var archive event.Archive
	var qdbClient questdb.QuestDBClient
	if cfg.ArchiveEnabled {
		client, err := questdb.NewClient(ctx, cfg.QuestDBConfig)
		if err != nil {
			log.Error(err, logger.Field{
				Key:   "action",
				Value: "connect_questdb",
			})
			return
		}
		defer client.Close()

		qdbClient = client
		archive = event.NewRepository(client)
	}

	checks := []healthcheck.Check{
		{Name: "redis", Probe: rclient.Ping},
	}
	if qdbClient != nil {
		checks = append(checks, healthcheck.Check{Name: "questdb", Probe: qdbClient.Ping})
	}

	healthServer := &http.Server{
		Addr:    cfg.HealthAddr,
		Handler: healthcheck.New(checks...).Handler(http.NotFoundHandler()),
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, logger.Field{
				Key:   "action",
				Value: "serve_health",
			})
		}
	}()

	// Initialize components
	reader := eventreader.NewReader(cfg.KafkaConfig, log)
	snapshotStore := snapshot.NewStore(rclient, cfg.RedisConfig.DefaultChannel, log)
	engine := app.NewEngineWithOptions(
		reader,
		snapshotStore,
		archive,
		log,
		cfg,
		&app.Options{
			SnapshotInterval:    cfg.SnapshotInterval,
			SnapshotOffsetDelta: cfg.SnapshotOffsetDelta,
			ArchiveInterval:     cfg.ArchiveInterval,
			ArchiveBatchSize:    cfg.ArchiveBatchSize,
		},
	)

	// Start the engine
	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("Book reconstructor started successfully", logger.Field{
		Key:   "topic",
		Value: cfg.KafkaConfig.Topic,
	})

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	// Cancel the main context to signal shutdown
	cancel()

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the engine gracefully
	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_health_server",
		})
	}

	// Close Redis client if it has a close method
	if closer, ok := rclient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error(err, logger.Field{
				Key:   "action",
				Value: "close_redis_client",
			})
		}
	}

	log.Info("Book reconstructor shutdown complete")
}
