package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Atelier-Order-System/internal/notification/application"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
	"github.com/dmehra2102/Atelier-Order-System/pkg/idempotency"
	"github.com/dmehra2102/Atelier-Order-System/pkg/tracing"
)

// Consumer reads effect events off the effects topic and executes them.
// The relay delivers at-least-once, so every message passes the redis
// dedupe check before any mail goes out.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate effect skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ExecuteEffect")

		var event domain.EffectEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Error("effect event unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		// Failures are logged for out-of-band retry; the transition that
		// produced the effect is already committed and stays untouched.
		if err := c.svc.Execute(msgCtx, event); err != nil {
			c.log.Error("effect execution failed", "order_id", event.OrderID, "kind", event.Kind, "err", err)
		}

		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
