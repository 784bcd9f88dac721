package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shivanshkc/oidcflow/internal/config"
	"github.com/shivanshkc/oidcflow/internal/handler"
	"github.com/shivanshkc/oidcflow/internal/middleware"
	"github.com/shivanshkc/oidcflow/internal/utils/signals"
)

// Server is the redirect receiver of this application.
type Server struct {
	Config     config.Config
	Middleware middleware.Middleware
	Handler    *handler.Handler
	// Gatherer serves /metrics. The route is absent when nil.
	Gatherer prometheus.Gatherer

	httpServer *http.Server
}

// Start sets up all the routes on the server and calls ListenAndServe on it.
//
// It blocks until the server is shut down, either through Shutdown or upon interruption.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.Config.HTTPServer.Addr,
		ReadHeaderTimeout: time.Minute,
		Handler:           s.getHandler(),
	}

	// Gracefully shut down upon interruption.
	signals.OnSignal(func(_ os.Signal) {
		slog.Info("interruption detected, gracefully shutting down the server")
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			slog.Error("failed to gracefully shutdown the server", "err", err)
		}
	})

	slog.Info("starting http server", "name", s.Config.Application.Name, "addr", s.Config.HTTPServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// getHandler attaches middleware and REST methods to a new router.
func (s *Server) getHandler() http.Handler {
	router := mux.NewRouter()

	// Attach middleware.
	router.Use(s.Middleware.Recovery)
	router.Use(s.Middleware.Security)
	router.Use(s.Middleware.AccessLogger)

	// The provider redirects the browser here.
	router.HandleFunc("/callback", s.Handler.Callback).Methods(http.MethodGet)
	// The landing page offers this to abandon the sign-in.
	router.HandleFunc("/cancel", s.Handler.Cancel).Methods(http.MethodGet)
	router.HandleFunc("/health", s.Handler.Health).Methods(http.MethodGet, http.MethodHead)

	if s.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	// Enable profiling if configured.
	if s.Config.Application.PProf {
		s.addProfilingRoutes(router)
	}

	// Handle 404.
	router.PathPrefix("/").HandlerFunc(s.Handler.NotFound)

	return router
}

// addProfilingRoutes adds all the pprof routes to the router.
func (s *Server) addProfilingRoutes(router *mux.Router) {
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	// Paths linked to by the index page at /debug/pprof
	for _, name := range []string{"goroutine", "heap", "threadcreate", "block", "mutex"} {
		router.Handle("/debug/pprof/"+name, pprof.Handler(name))
	}

	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.HandleFunc("/debug/pprof", pprof.Index)

	slog.Info("pprof endpoints available at: /debug/pprof")
}
