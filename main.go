package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/config"
	"storefront/handlers"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/chat"
	"storefront/internal/checkout"
	"storefront/internal/consul"
	"storefront/internal/customers"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/stores/kafka"
	"storefront/internal/stores/postgres"
	"storefront/middleware"
	"storefront/pkg/logkey"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	var keys *auth.Keys
	if cfg.PublicKeyPath != "" {
		if keys, err = auth.LoadKeys(cfg.PublicKeyPath); err != nil {
			return err
		}
	} else {
		slog.Warn("PUBLIC_KEY_PATH not set, every request is served as a guest")
	}

	cat, err := catalog.NewConf(repo)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(repo)
	if err != nil {
		return err
	}
	cust, err := customers.NewConf(repo)
	if err != nil {
		return err
	}

	var pub checkout.Publisher
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewConf(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		pub = kafka.NewOrderEvents(producer, cfg.Kafka.TopicOrderCompleted)

		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.TopicAccountCreated)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go func() {
			err := consumer.Run(ctx, func(ctx context.Context, evt kafka.AccountCreatedEvent) error {
				c, err := cust.Resolve(ctx, domain.User{ID: evt.ID, Name: evt.Name, Email: evt.Email})
				if err != nil {
					return err
				}
				slog.Info("customer ready for account", slog.String(logkey.UserID, evt.ID), slog.Int64(logkey.CustomerID, c.ID))
				return nil
			})
			if err != nil {
				slog.Error("account-created consumer stopped", slog.String(logkey.ERROR, err.Error()))
			}
		}()
	}

	fin, err := checkout.NewFinalizer(repo, pub)
	if err != nil {
		return err
	}

	var gen chat.Generator
	if cfg.Gemini.APIKey != "" {
		gen = chat.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, nil)
	}
	relay, err := chat.NewRelay(gen, cat, cfg.Gemini.APIKey)
	if err != nil {
		return err
	}

	h, err := handlers.NewHandler(cat, cartConf, cust, fin, relay)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handlers.API(cfg.EndpointPrefix, middleware.NewMid(keys), h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Consul.Addr != "" {
		client, err := consul.NewClient(cfg.Consul.Addr)
		if err != nil {
			return err
		}
		id, err := consul.RegisterService(client, cfg.Consul.ServiceName, cfg.Consul.ServiceHost, cfg.Port)
		if err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, id); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("Addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

func setupLogger(ginMode string) {
	var handler slog.Handler
	if ginMode == gin.ReleaseMode {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

func openRepository(ctx context.Context, cfg config.Config) (repository.Repository, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := repository.NewMemoryStore()
		catalog.SeedDemo(store)
		slog.Info("using in-memory storage with demo catalog")
		return store, func() {}, nil
	}

	db, err := postgres.OpenDB(ctx, cfg.DB.DSN())
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { closeQuietly(db) }
	if err := postgres.Migrate(ctx, db); err != nil {
		closeDB()
		return nil, nil, err
	}
	store, err := postgres.NewStore(db)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return store, closeDB, nil
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", slog.String(logkey.ERROR, err.Error()))
	}
}
