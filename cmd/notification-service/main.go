package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	notif "github.com/dmehra2102/Atelier-Order-System/internal/notification/application"
	"github.com/dmehra2102/Atelier-Order-System/internal/notification/infrastructure/console"
	notifkafka "github.com/dmehra2102/Atelier-Order-System/internal/notification/infrastructure/kafka"
	"github.com/dmehra2102/Atelier-Order-System/pkg/config"
	"github.com/dmehra2102/Atelier-Order-System/pkg/idempotency"
	"github.com/dmehra2102/Atelier-Order-System/pkg/logging"
	"github.com/dmehra2102/Atelier-Order-System/pkg/shutdown"
	"github.com/dmehra2102/Atelier-Order-System/pkg/tracing"
)

func main() {
	log := logging.New("notification-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var cfg config.NotificationService
	if err := config.Parse(&cfg); err != nil {
		log.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "notification-service", cfg.JaegerURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	redisDB := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(redisDB, 10*time.Minute)

	svc := notif.NewService(log, console.NewMailer(log), console.NewInvoiceRenderer())
	consumer := notifkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.EffectsTopic, cfg.GroupID, svc, idem)

	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("notification-service shutdown")
}
