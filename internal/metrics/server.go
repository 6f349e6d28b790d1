package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firestige.xyz/pktdesc/internal/log"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the default Prometheus registry over HTTP, plus a
// liveness probe on /healthz.
type Server struct {
	addr   string
	path   string
	server *http.Server
	logger log.Logger
}

// NewServer creates a metrics server. An empty path serves /metrics.
func NewServer(addr, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		addr:   addr,
		path:   path,
		logger: log.GetLogger().WithField("component", "metrics"),
	}
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}),
	))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Start binds the listener and serves in the background. Addr reports the
// bound address afterwards, which matters for ":0".
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics server listen %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.WithField("addr", s.addr).WithField("path", s.path).Info("metrics server listening")
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Addr() string { return s.addr }

// Stop shuts the server down, waiting at most shutdownTimeout for
// in-flight scrapes.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	s.logger.Debug("metrics server stopped")
	return nil
}
