// cmd/embedding-backfill/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"embedding-backfill/internal/common/config"
	"embedding-backfill/internal/common/database"
	apperrors "embedding-backfill/internal/common/errors"
	apphttp "embedding-backfill/internal/common/http"
	"embedding-backfill/internal/common/logger"
	"embedding-backfill/internal/common/metrics"
	"embedding-backfill/internal/common/observability"
	"embedding-backfill/internal/embedding"
	backfill "embedding-backfill/internal/workers/embedding/backfill-embeddings"
)

func main() {
	os.Exit(run())
}

// run executes one backfill and returns the process exit code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.NewConfigInvalidError(err))
		return 1
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return 1
	}
	defer zapLog.Sync()

	zapLog = zapLog.With(
		zap.String("runId", uuid.NewString()),
		zap.String("version", cfg.App.Version),
	)
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	zapLog.Info("Starting embedding backfill",
		zap.String("target", cfg.Database.Target()),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("commitInterval", cfg.Job.CommitInterval),
	)

	pg, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Error("Error connecting to database", apperrors.AsStandardError(err).Fields())
		recordFailure(ctx, cfg, start, err, zapLog)
		return 1
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	obs, err := observability.New(cfg.App.Name, metrics.Registry)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	} else {
		defer obs.Shutdown(context.Background())
	}

	embedder, closeEmbedder := buildEmbedder(ctx, cfg, obs, log, zapLog)
	defer closeEmbedder()

	handler := backfill.NewHandler(&backfill.Config{
		CommitInterval: cfg.Job.CommitInterval,
		Dimension:      cfg.Embedding.Dimension,
		Timeout:        config.GetDuration(cfg.Job.Timeout),
	}, pg.DB, embedder, log)

	output, err := handler.Execute(ctx)
	if err != nil {
		log.Error("Embedding backfill failed", apperrors.AsStandardError(err).Fields())
		recordFailure(ctx, cfg, start, err, zapLog)
		return 1
	}

	metrics.RunDuration.Set(time.Since(start).Seconds())
	metrics.LastSuccess.SetToCurrentTime()
	pushMetrics(ctx, cfg, zapLog)

	zapLog.Info("Embedding backfill finished",
		zap.Int("total", output.Total),
		zap.Int("updated", output.Updated),
		zap.Int("skipped", output.Skipped),
		zap.Int("commits", output.Commits),
		zap.Duration("duration", output.Duration),
	)
	return 0
}

// buildEmbedder assembles provider, instrumentation and the optional Redis cache.
// The returned func releases whatever was opened.
func buildEmbedder(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger, zapLog *zap.Logger) (embedding.Embedder, func()) {
	timeout := config.GetDuration(cfg.Embedding.Timeout)

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		model := cfg.Embedding.Model
		if model == embedding.DefaultModel {
			model = ""
		}
		embedder = embedding.NewOpenAI(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedding.OpenAI.BaseURL,
			APIKey:    cfg.Embedding.OpenAI.APIKey,
			Model:     model,
			Dimension: cfg.Embedding.Dimension,
		})
	default:
		embedder = embedding.NewHuggingFace(embedding.HuggingFaceConfig{
			BaseURL:   cfg.Embedding.HuggingFace.BaseURL,
			APIKey:    cfg.Embedding.HuggingFace.APIKey,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		}, apphttp.NewClient(timeout, cfg.App.Name+"/"+cfg.App.Version))
	}

	if obs != nil {
		embedder = embedding.Instrument(embedder, obs)
	}

	if cfg.Database.Redis.Address == "" {
		return embedder, func() {}
	}

	rc := database.NewRedis(cfg.Database.Redis)
	if err := rc.Ping(ctx); err != nil {
		zapLog.Warn("embedding cache unavailable, continuing without it",
			zap.String("address", cfg.Database.Redis.Address),
			zap.Error(err),
		)
		_ = rc.Close()
		return embedder, func() {}
	}
	zapLog.Info("Redis embedding cache enabled", zap.String("address", cfg.Database.Redis.Address))

	ttl := time.Duration(cfg.Embedding.CacheTTL) * time.Second
	return embedding.NewCached(embedder, rc.Client, ttl, log), func() { _ = rc.Close() }
}

func recordFailure(ctx context.Context, cfg *config.Config, start time.Time, err error, zapLog *zap.Logger) {
	metrics.RunDuration.Set(time.Since(start).Seconds())
	metrics.RunFailures.WithLabelValues(string(apperrors.AsStandardError(err).Code)).Inc()
	pushMetrics(ctx, cfg, zapLog)
}

func pushMetrics(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	instance, err := os.Hostname()
	if err != nil {
		instance = cfg.App.Name
	}

	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, instance, nil); err != nil {
		zapLog.Warn("metrics push failed", zap.Error(err))
	}
}
