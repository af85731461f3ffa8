package observability

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Listener serves /metrics and /healthz on a side port.
type Listener struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewListener builds the listener for the given address.
func NewListener(addr string, metrics *Metrics, logger *slog.Logger) *Listener {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &Listener{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in a background goroutine.
func (l *Listener) Start() {
	go func() {
		l.logger.Debug("metrics listener starting", "addr", l.srv.Addr)
		if err := l.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.logger.Error("metrics listener failed", "error", err)
		}
	}()
}

// Shutdown stops the listener gracefully.
func (l *Listener) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}
