package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type HTTPServer struct {
	name     string
	srv      *http.Server
	certFile string
	keyFile  string
}

// NewHTTP serves TLS when both certFile and keyFile are set.
func NewHTTP(name string, srv *http.Server, certFile, keyFile string) *HTTPServer {
	return &HTTPServer{name: name, srv: srv, certFile: certFile, keyFile: keyFile}
}

// NewOps is the side listener for liveness and prometheus scraping.
func NewOps(addr string, exposeMetrics bool, gatherer prometheus.Gatherer) *HTTPServer {
	return NewHTTP("ops", &http.Server{Addr: addr, Handler: OpsHandler(exposeMetrics, gatherer), ReadHeaderTimeout: 5 * time.Second}, "", "")
}

func OpsHandler(exposeMetrics bool, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if exposeMetrics {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *HTTPServer) Start(_ context.Context) error {
	slog.Info("listening", "server", s.name, "addr", s.srv.Addr, "tls", s.certFile != "")
	var err error
	if s.certFile != "" && s.keyFile != "" {
		err = s.srv.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		err = s.srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type App struct {
	servers []Server
}

func NewApp(servers ...Server) *App {
	return &App{servers: servers}
}

// Run starts every server and blocks until ctx is cancelled or one of them fails,
// then shuts all of them down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range a.servers {
		s := srv
		g.Go(func() error {
			return s.Start(gctx)
		})
	}

	<-gctx.Done()
	slog.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range a.servers {
		if err := srv.Stop(stopCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}

	return g.Wait()
}
