// Package bootstrap provides dependency initialization for the MediaForge API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/mediaforge/mediaforge-api/internal/config"
	"github.com/mediaforge/mediaforge-api/internal/engine"
	"github.com/mediaforge/mediaforge-api/internal/job"
	"github.com/mediaforge/mediaforge-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Engine  *engine.FFmpeg
	Stager  *storage.Local
	Runner  *job.Runner
	Sweeper *job.Sweeper
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	eng := engine.New(cfg.FFmpegPath,
		engine.WithTimeout(cfg.ProcessTimeout),
		engine.WithFFprobePath(cfg.FFprobePath),
	)

	stager, err := storage.NewLocal(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", stager.Root()),
	)

	repo, err := initRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := initPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics := job.NewMetrics(prometheus.DefaultRegisterer)
	runner := job.NewRunner(repo, eng, publisher, metrics, logger, job.WithProber(eng))
	sweeper := job.NewSweeper(repo, cfg.JobRetention, cfg.SweepInterval, metrics, logger)

	return &Dependencies{
		Engine:  eng,
		Stager:  stager,
		Runner:  runner,
		Sweeper: sweeper,
	}, nil
}

// initRepository selects the job repository backend based on configuration.
func initRepository(cfg *config.Config, logger *slog.Logger) (job.Repository, error) {
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("redis job repository configured",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return job.NewRedisRepository(client), nil
	}

	logger.Info("in-memory job repository configured")
	return job.NewMemoryRepository(), nil
}

// initPublisher creates the S3 result publisher when a bucket is configured.
// Without one, jobs that request publication keep only their local result.
func initPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (job.Publisher, error) {
	if !cfg.S3Enabled() {
		return nil, nil
	}

	s3Cfg := storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
	publisher, err := storage.NewS3(ctx, s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("create S3 publisher: %w", err)
	}
	logger.Info("S3 publisher configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return publisher, nil
}
