package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-video-intake/internal/config"
	"github.com/go-video-intake/internal/infrastructure/dynamo"
	"github.com/go-video-intake/internal/infrastructure/memory"
	"github.com/go-video-intake/internal/infrastructure/preview"
	redisinfra "github.com/go-video-intake/internal/infrastructure/redis"
	s3infra "github.com/go-video-intake/internal/infrastructure/s3"
	"github.com/go-video-intake/internal/infrastructure/smtp"
	"github.com/go-video-intake/internal/infrastructure/sns"
	"github.com/go-video-intake/internal/securitylog"
	transporthttp "github.com/go-video-intake/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	ctx := context.Background()

	deps, err := buildStores(ctx, cfg)
	if err != nil {
		slog.Error("store backend unavailable", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}

	// Alert sinks are optional; each is enabled by its own setting.
	var sinks []securitylog.Sink
	if cfg.SecurityAlertTopicARN != "" {
		if pub, err := sns.NewAlertPublisher(ctx, cfg); err == nil {
			sinks = append(sinks, pub)
		} else {
			slog.Warn("SNS alert publisher not available", "err", err)
		}
	}
	if cfg.SecurityArchiveBucket != "" {
		if client, err := s3infra.NewClient(ctx, cfg); err == nil {
			sinks = append(sinks, s3infra.NewEventArchive(client, cfg.SecurityArchiveBucket))
		} else {
			slog.Warn("S3 event archive not available", "err", err)
		}
	}
	events := securitylog.New(slog.Default(), sinks...)
	deps.Events = events

	previewClient := preview.NewClient(cfg.PreviewServiceURL, &http.Client{Timeout: cfg.PreviewTimeout})
	deps.Preview = preview.NewNotifier(previewClient, smtp.NewMailer(cfg))

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PreviewTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	if err := events.Close(shutdownCtx); err != nil {
		slog.Warn("security events not fully flushed", "err", err)
	}
	slog.Info("server stopped")
}

// buildStores selects the limiter, duplicate-suppression and session backends.
func buildStores(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client := redisinfra.NewClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return &transporthttp.Deps{
			Limiter:     redisinfra.NewWindowLimiter(client, "intake:rl"),
			Submissions: redisinfra.NewSubmissionStore(client, "intake:recent"),
			Sessions:    redisinfra.NewSessionStore(client, "intake:csrf"),
		}, nil
	case config.BackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		// DynamoDB only backs duplicate suppression; counters and sessions stay local.
		return &transporthttp.Deps{
			Limiter:     memory.NewWindowLimiter(nil),
			Submissions: dynamo.NewSubmissionRepo(client, cfg.DynamoTables.Submissions),
			Sessions:    memory.NewSessionStore(nil),
		}, nil
	case config.BackendMemory:
		return &transporthttp.Deps{
			Limiter:     memory.NewWindowLimiter(nil),
			Submissions: memory.NewSubmissionStore(nil),
			Sessions:    memory.NewSessionStore(nil),
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
