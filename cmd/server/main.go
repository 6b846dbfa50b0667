package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clip-sync/internal/catalog"
	"clip-sync/internal/live"
	"clip-sync/internal/platform/config"
	"clip-sync/internal/platform/logger"
	"clip-sync/internal/platform/metrics"
	"clip-sync/internal/recorder"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	catalogURL := config.GetEnv("CATALOG_URL", "http://127.0.0.1:4000")
	catalogToken := config.GetEnv("CATALOG_TOKEN", "")
	liveURL := config.GetEnv("LIVE_API_URL", live.DefaultBaseURL)
	httpTimeout := config.GetEnvDuration("HTTP_TIMEOUT", catalog.DefaultTimeout)
	sessionTTL := config.GetEnvDuration("SESSION_TTL", recorder.DefaultSessionTTL)
	reapInterval := config.GetEnvDuration("REAPER_INTERVAL", recorder.DefaultReapInterval)

	log := logger.New(logLevel, logFormat)

	store := recorder.NewInMemoryStore()
	cat := catalog.NewClient(catalogURL, catalogToken, httpTimeout)
	rooms := live.NewClient(liveURL, httpTimeout)
	svc := recorder.NewService(store, cat, rooms)
	met := metrics.New()
	h := recorder.NewHandler(svc, log, met)
	reaper := recorder.NewReaper(svc, reapInterval, sessionTTL, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(store.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	r.Get("/hello", h.Hello)
	r.Get("/sessions", h.Sessions)
	r.Post("/webhook", h.Webhook)

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go reaper.Run(reaperCtx)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"catalog_url", catalogURL,
		"live_api_url", liveURL,
		"session_ttl", sessionTTL.String(),
		"reaper_interval", reapInterval.String(),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")
	stopReaper()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
