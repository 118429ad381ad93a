package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/murder-mystery/internal/config"
	"github.com/murder-mystery/internal/handler"
	"github.com/murder-mystery/internal/kafka"
	"github.com/murder-mystery/internal/memstore"
	"github.com/murder-mystery/internal/postgres"
	"github.com/murder-mystery/internal/redis"
	"github.com/murder-mystery/internal/seed"
	"github.com/murder-mystery/internal/service"
	"github.com/murder-mystery/internal/websocket"
	"github.com/murder-mystery/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub initialized")

	opts := []service.Option{service.WithNotifier(wsHub)}

	var cache *redis.Cache
	if cfg.Redis.Enabled {
		logger.Info("connecting to redis", "addr", cfg.Redis.Addr)
		cache, err = redis.NewCache(&cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		opts = append(opts, service.WithRoundCache(cache), service.WithStandings(cache))

		// Round changes made on any instance reach this instance's sockets
		go func() {
			if err := cache.SubscribeRounds(ctx, wsHub.BroadcastRound); err != nil {
				logger.Error("round subscription ended", "error", err)
			}
		}()
	}

	gameService, err := service.NewGameService(store, &cfg.Game, logger, opts...)
	if err != nil {
		logger.Error("failed to create game service", "error", err)
		os.Exit(1)
	}

	var syncWorker *worker.SyncWorker
	if cfg.Sync.Enabled && cache != nil {
		syncWorker = worker.NewSyncWorker(gameService, &cfg.Sync, logger)
		if err := syncWorker.Start(ctx); err != nil {
			logger.Error("failed to start sync worker", "error", err)
			os.Exit(1)
		}
	}

	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, gameService, logger)
		if err != nil {
			logger.Warn("failed to create kafka consumer, continuing without kiosk ingestion", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start kafka consumer, continuing without kiosk ingestion", "error", err)
			kafkaConsumer = nil
		}
	}

	httpHandler := handler.NewHandler(gameService, wsHub, cfg.Auth.UserHeader, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop kafka consumer", "error", err)
		}
	}

	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Error("failed to stop sync worker", "error", err)
		}
	}

	wsHub.Stop()
	cancel()

	logger.Info("server stopped")
}

// openStore builds the configured persistence backend. The seed file, when
// set, is the whole game for the memory driver and an idempotent import for
// postgres.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Store, func(), error) {
	var data *seed.Seed
	if cfg.Store.SeedFile != "" {
		var err error
		data, err = seed.Load(cfg.Store.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		if err := data.CheckSentenceKeys(cfg.Game.SentenceWords); err != nil {
			return nil, nil, fmt.Errorf("checking seed file: %w", err)
		}
		logger.Info("loaded seed file",
			"path", cfg.Store.SeedFile,
			"characters", len(data.Characters),
			"users", len(data.Users),
		)
	}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		if data == nil {
			logger.Warn("memory store started without a seed file")
			return memstore.New(), func() {}, nil
		}
		return memstore.FromSeed(data), func() {}, nil

	default:
		logger.Info("connecting to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		repo, err := postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(ctx); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		if data != nil {
			if err := repo.Import(ctx, data); err != nil {
				repo.Close()
				return nil, nil, fmt.Errorf("importing seed: %w", err)
			}
		}
		return repo, repo.Close, nil
	}
}
