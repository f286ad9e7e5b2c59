package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, 10*time.Minute, cfg.ProcessTimeout)
	assert.Equal(t, "/tmp/mediaforge", cfg.TempDir)
	assert.Equal(t, int64(536870912), cfg.MaxUploadBytes)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, time.Hour, cfg.JobRetention)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("FFPROBE_PATH", "/opt/ffmpeg/bin/ffprobe")
	t.Setenv("PROCESS_TIMEOUT", "2m")
	t.Setenv("TEMP_DIR", "/custom/temp")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("JOB_RETENTION", "30m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "redis-secret")
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret-key")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", cfg.FFprobePath)
	assert.Equal(t, 2*time.Minute, cfg.ProcessTimeout)
	assert.Equal(t, "/custom/temp", cfg.TempDir)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.JobRetention)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "my-bucket", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.S3Enabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("non-numeric port", func(t *testing.T) {
		t.Setenv("PORT", "not-a-number")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("PROCESS_TIMEOUT", "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("non-positive retention", func(t *testing.T) {
		t.Setenv("JOB_RETENTION", "0s")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidRetention)
	})

	t.Run("non-positive sweep interval", func(t *testing.T) {
		t.Setenv("SWEEP_INTERVAL", "-1m")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestConfig_S3Enabled(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		region   string
		expected bool
	}{
		{"both set", "bucket", "region", true},
		{"only bucket", "bucket", "", false},
		{"only region", "", "region", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				S3Bucket: tt.bucket,
				S3Region: tt.region,
			}
			assert.Equal(t, tt.expected, cfg.S3Enabled())
		})
	}
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		Port:               8080,
		FFmpegPath:         "ffmpeg",
		TempDir:            "/tmp/test",
		RedisAddr:          "localhost:6379",
		RedisPassword:      "redis-secret",
		S3Bucket:           "bucket",
		S3Region:           "region",
		AWSSecretAccessKey: "aws-secret",
		LogFormat:          "json",
		LogLevel:           "info",
	}

	str := cfg.String()

	// Should contain non-sensitive values
	assert.Contains(t, str, "8080")
	assert.Contains(t, str, "/tmp/test")
	assert.Contains(t, str, "localhost:6379")

	// Should NOT contain sensitive values
	assert.NotContains(t, str, "redis-secret")
	assert.NotContains(t, str, "aws-secret")
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := &Config{
		LogFormat: "json",
		LogLevel:  "info",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)

	// Capture output to verify it's JSON
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	testLogger := slog.New(handler)
	testLogger.Info("test message")

	// Should have JSON structure
	assert.Contains(t, buf.String(), `"msg"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestConfig_NewLogger_Text(t *testing.T) {
	cfg := &Config{
		LogFormat: "text",
		LogLevel:  "debug",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
