package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// MetricsGatherer serves GET /metrics; nil uses the default registry.
	MetricsGatherer prometheus.Gatherer
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	// Synchronous processing
	mux.HandleFunc("POST /convert", h.Convert)
	mux.HandleFunc("POST /create_video", h.CreateVideo)
	mux.HandleFunc("POST /add_subtitle", h.AddSubtitle)
	mux.HandleFunc("POST /create_waveform", h.CreateWaveform)
	mux.HandleFunc("POST /create_spectrogram", h.CreateSpectrogram)
	mux.HandleFunc("POST /separate_vocals", h.SeparateVocals)

	// Asynchronous visualization jobs
	mux.HandleFunc("POST /visualizations", h.CreateVisualization)
	mux.HandleFunc("GET /jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /jobs/{id}/download", h.DownloadJob)
	mux.HandleFunc("GET /jobs/{id}/events", h.JobEvents)

	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
