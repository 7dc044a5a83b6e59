package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatherly.org/internal/auth"
	"gatherly.org/internal/config"
	"gatherly.org/internal/event"
	"gatherly.org/internal/httpapi"
	"gatherly.org/internal/obs"
	"gatherly.org/internal/store/pg"
	"gatherly.org/internal/user"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingSecret) {
			log.Fatal("GATHERLY_AUTH_SECRET must be set")
		}
		log.Fatalf("config: %v", err)
	}

	// Postgres when a DSN is configured, in-memory stores otherwise.
	var (
		userStore  user.Store
		eventStore event.Store
		ready      func() error
	)
	if cfg.PostgresDSN != "" {
		pgStore, err := pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		userStore = pgStore.Users()
		eventStore = pgStore.Events()
		ready = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pgStore.DB().PingContext(ctx)
		}
	} else {
		log.Print("GATHERLY_PG_DSN not set, using in-memory stores")
		userStore = user.NewMemStore()
		eventStore = event.NewMemStore()
	}

	tokens, err := auth.NewTokenService(cfg.AuthSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authSvc := auth.NewService(userStore, tokens)
	eventSvc := event.NewService(eventStore)

	api := httpapi.NewAPI(authSvc, eventSvc)
	api.Version = version
	api.Commit = commit
	api.Ready = ready

	limiter := httpapi.NewRateLimiter(float64(cfg.RatePerSec), cfg.RateBurst)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(limiter),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting gatherly-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
