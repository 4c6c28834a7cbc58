package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes the monitoring config section (§6) over HTTP: a
// Prometheus scrape endpoint plus a liveness check, serving whatever
// port the monitoring config section assigns (monitoring.port).
type Server struct {
	server *http.Server
	port   string
	logger *zap.Logger
}

// NewServer builds a Server bound to port (":9090" if empty).
func NewServer(port string, logger *zap.Logger) *Server {
	if port == "" {
		port = ":9090"
	}
	if port[0] != ':' {
		port = ":" + port
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{server: server, port: port, logger: logger}
}

// Start begins serving metrics in the background.
func (s *Server) Start() error {
	if s.logger != nil {
		s.logger.Info("starting metrics server", zap.String("port", s.port))
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("metrics server error", zap.Error(err))
			}
		}
	}()
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("shutting down metrics server")
	}
	return s.server.Shutdown(ctx)
}
