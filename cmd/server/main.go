package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/planbook-app/planbook/internal/api"
	"github.com/planbook-app/planbook/internal/config"
	"github.com/planbook-app/planbook/internal/logging"
	"github.com/planbook-app/planbook/internal/metrics"
	"github.com/planbook-app/planbook/internal/store"
	"github.com/planbook-app/planbook/internal/supabase"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New("planbook")

	client, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("supabase client: %v", err)
	}

	repo := store.NewRepository(client)
	m := metrics.New("planbook")

	handler := api.NewHandler(api.Deps{
		Config:  cfg,
		Client:  client,
		Repo:    repo,
		Logger:  logger,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  2 * cfg.RequestTimeout,
	}

	go func() {
		logger.Info(context.Background(), "server listening", map[string]interface{}{
			"port": cfg.Port,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	logger.Info(context.Background(), "server stopped", nil)
}
