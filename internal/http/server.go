package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spotifystatus/internal/core"
	"spotifystatus/internal/status"
)

const (
	serviceName     = "spotifystatus"
	shutdownTimeout = 10 * time.Second
)

// StatusSource is the read side of the status board.
type StatusSource interface {
	Snapshot() status.Snapshot
	Ready() bool
}

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

func NewServer(config *core.ServerConfig, metrics *Metrics, board StatusSource, logger *zap.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}

	mux := setupRoutes(logger, metrics, board)
	server := createHTTPServer(config, mux)

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		metrics: metrics,
	}
}

// setupRoutes configures the HTTP routes.
func setupRoutes(logger *zap.Logger, metrics *Metrics, board StatusSource) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !board.Ready() {
			writeJSON(w, logger, http.StatusServiceUnavailable,
				map[string]string{"status": "waiting", "service": serviceName})
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ready", "service": serviceName})
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, board.Snapshot())
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

// createHTTPServer creates the HTTP server with configuration.
func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

// homeHandler returns the handler for the home page.
func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(homePage)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>spotifystatus</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #1db954; }
    </style>
</head>
<body>
    <h1>spotifystatus</h1>
    <p>Spotify now-playing status with canvas and lyrics</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/status">Status</a> - Current status board</div>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}
