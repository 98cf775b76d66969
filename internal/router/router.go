package router

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"vitals-app/internal/analytics"
	"vitals-app/internal/config"
	"vitals-app/internal/domain"
	"vitals-app/internal/endpoints"
	"vitals-app/internal/hub"
	"vitals-app/internal/util"
	"vitals-app/internal/vitals"
)

// Services are the collaborators shared by every route.
type Services struct {
	Store     domain.ReportStore
	Logger    *util.VitalsLogger
	Analytics *analytics.Prometheus
	Hub       *hub.Hub
}

func NewRouter(cfg config.HTTPConfig, svc Services) *mux.Router {
	r := mux.NewRouter()

	addRoutes(r, cfg, svc)

	r.Use(loggingMiddleware(svc.Logger))

	return r
}

func addRoutes(r *mux.Router, cfg config.HTTPConfig, svc Services) {

	vitalsHandler := &endpoints.Vitals{}
	vitalsHandler.Init(svc.Store, svc.Logger)

	opts := endpoints.CollectorOptions{MaxBodySize: cfg.MaxBodySize}
	if svc.Analytics != nil {
		opts.Recorder = svc.Analytics
	}
	if svc.Hub != nil {
		opts.Publisher = svc.Hub
	}
	collector := &endpoints.Collector{}
	collector.Init(svc.Store, svc.Logger, opts)

	ingest := r.NewRoute().Subrouter()
	if cfg.RateLimitEnabled {
		ingest.Use(newClientLimiter(cfg.RateLimitRequests, cfg.RateLimitBurst).middleware)
	}
	ingest.HandleFunc(vitals.BeaconPath, collector.BeaconHandler).Methods(http.MethodPost)
	ingest.HandleFunc("/api/analytics/entries", collector.EntriesHandler).Methods(http.MethodPost)

	r.HandleFunc("/vitals/summary", vitalsHandler.GetSummaryHandler).Methods(http.MethodGet)
	r.HandleFunc("/vitals/{limit}/{offset}", vitalsHandler.GetReportsHandler).Methods(http.MethodGet)

	if svc.Analytics != nil {
		r.Handle("/metrics", svc.Analytics.Handler()).Methods(http.MethodGet)
	}
	if svc.Hub != nil {
		r.Handle("/ws/vitals", svc.Hub).Methods(http.MethodGet)
	}
	r.HandleFunc("/alive.txt", aliveHandler).Methods(http.MethodGet, http.MethodHead)
}

func aliveHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ALIVE\n"))
}

func NewServer(addr string, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down within the configured
// grace period.
func Run(cfg *config.Config, svc Services) error {
	appRouter := NewRouter(cfg.HTTP, svc)

	server := NewServer(":"+cfg.App.Port, appRouter, cfg.HTTP)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		svc.Logger.LogEvent(util.LOG_LEVEL_INFO, "Listening on", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	svc.Logger.LogEvent(util.LOG_LEVEL_INFO, "Shutting down server...")
	if svc.Hub != nil {
		svc.Hub.Close()
	}

	if err := gracefulShutdown(server, cfg.HTTP.ShutdownTimeout); err != nil {
		svc.Logger.LogEvent(util.LOG_LEVEL_ERROR, "Server stopped with error:", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	svc.Logger.LogEvent(util.LOG_LEVEL_INFO, "Server stopped gracefully.")
	return nil
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}
