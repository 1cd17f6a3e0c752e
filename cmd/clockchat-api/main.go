package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clockchat/clockchat/internal/api"
	"github.com/clockchat/clockchat/internal/auth"
	"github.com/clockchat/clockchat/internal/config"
	"github.com/clockchat/clockchat/internal/export"
	"github.com/clockchat/clockchat/internal/fields"
	"github.com/clockchat/clockchat/internal/nl2sql"
	"github.com/clockchat/clockchat/internal/observability"
	"github.com/clockchat/clockchat/internal/pipeline"
	"github.com/clockchat/clockchat/internal/query"
	querypostgres "github.com/clockchat/clockchat/internal/query/postgres"
	"github.com/clockchat/clockchat/internal/rating"
	ratingpostgres "github.com/clockchat/clockchat/internal/rating/postgres"
	ratingsqlite "github.com/clockchat/clockchat/internal/rating/sqlite"
	"github.com/clockchat/clockchat/internal/sqlguard"
	s3store "github.com/clockchat/clockchat/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("clockchat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	registry, err := fields.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error("failed to load field catalog", slog.Any("error", err))
		os.Exit(1)
	}

	ratings, err := openRatingStore(cfg)
	if err != nil {
		logger.Error("failed to open rating store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = ratings.Close() }()

	var translator nl2sql.Translator
	if cfg.AI.TranslateEnabled {
		openai, err := nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize query translator", slog.Any("error", err))
			os.Exit(1)
		}
		translator = openai
	}

	var executor query.Executor
	if cfg.Analytics.DSN != "" {
		analytics, err := querypostgres.Open(context.Background(), querypostgres.Config{
			DSN:          cfg.Analytics.DSN,
			QueryTimeout: cfg.Analytics.QueryTimeout,
			MaxRows:      cfg.Analytics.MaxRows,
			MaxOpenConns: cfg.Analytics.MaxOpenConns,
			MaxIdleConns: cfg.Analytics.MaxIdleConns,
		})
		if err != nil {
			logger.Error("failed to open analytics db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = analytics.Close() }()
		executor = analytics
	}

	var exporter api.ReportExporter
	if cfg.Export.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		exporter = export.New(objectStore, cfg.Export.MaxRows)
	}

	chat := pipeline.New(logger, registry, translator, executor, pipeline.Config{
		MaxSynonymsPerField: cfg.Catalog.MaxSynonymsPerField,
	})

	deps := api.Dependencies{
		Logger:      logger,
		Chat:        chat,
		Registry:    registry,
		Gate:        sqlguard.NewGate(),
		Translator:  translator,
		Ratings:     ratings,
		Executor:    executor,
		Exporter:    exporter,
		MaxSynonyms: cfg.Catalog.MaxSynonymsPerField,
		Readiness: api.CombineReadinessChecks(
			api.CheckRatingsStore(ratings),
			api.CheckFieldRegistry(registry),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openRatingStore(cfg config.Config) (rating.Store, error) {
	switch cfg.Ratings.Driver {
	case "postgres":
		db, err := ratingpostgres.Open(context.Background(), ratingpostgres.DBConfig{
			DSN:             cfg.Ratings.DSN,
			MaxOpenConns:    cfg.Ratings.MaxOpenConns,
			MaxIdleConns:    cfg.Ratings.MaxIdleConns,
			ConnMaxIdleTime: cfg.Ratings.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Ratings.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return ratingpostgres.NewRepository(db), nil
	default:
		return ratingsqlite.Open(cfg.Ratings.SQLitePath)
	}
}
