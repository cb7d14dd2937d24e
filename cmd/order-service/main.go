package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/dmehra2102/Atelier-Order-System/pkg/config"
	"github.com/dmehra2102/Atelier-Order-System/pkg/logging"
	"github.com/dmehra2102/Atelier-Order-System/pkg/outbox"
	"github.com/dmehra2102/Atelier-Order-System/pkg/shutdown"
	"github.com/dmehra2102/Atelier-Order-System/pkg/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogpg "github.com/dmehra2102/Atelier-Order-System/internal/catalog/infrastructure/postgres"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/application"
	orderhttp "github.com/dmehra2102/Atelier-Order-System/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/Atelier-Order-System/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/Atelier-Order-System/internal/order/infrastructure/postgres"
)

func main() {
	log := logging.New("order-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var cfg config.OrderService
	if err := config.Parse(&cfg); err != nil {
		log.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "order-service", cfg.JaegerURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := orderpg.EnsureSchema(ctx, pool); err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}

	// Effect events leave through the outbox relay.
	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()
	store := orderpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.EffectsTopic)
	relay := outbox.NewRelay(log, store, dispatch, "order-service-relay")

	repo := orderpg.NewRepository(log, pool)
	registry := catalogpg.NewRegistry(log, pool)
	svc := application.NewService(log, repo, registry)
	handler := orderhttp.NewHandler(log, svc)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}
