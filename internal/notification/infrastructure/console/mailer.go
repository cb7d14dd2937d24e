// Package console implements the notification ports against the
// process log. Deployments swap in the SMTP relay and the PDF engine;
// the pipeline, retries and idempotency behave the same either way.
package console

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	notif "github.com/dmehra2102/Atelier-Order-System/internal/notification/application"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

type Mailer struct {
	log *slog.Logger
}

func NewMailer(log *slog.Logger) *Mailer {
	return &Mailer{log: log}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string, attachments []notif.Attachment) error {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Filename)
	}
	m.log.Info("mail delivered", "to", to, "subject", subject, "bytes", len(body), "attachments", names)
	return nil
}

// InvoiceRenderer produces a plain-text invoice. The layout feeds the
// same template the PDF engine uses downstream.
type InvoiceRenderer struct{}

func NewInvoiceRenderer() *InvoiceRenderer { return &InvoiceRenderer{} }

func (r *InvoiceRenderer) Render(ctx context.Context, event domain.EffectEvent) (notif.Attachment, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "INVOICE %s\n", event.OrderNumber)
	fmt.Fprintf(&buf, "Issued %s\n\n", event.OccurredAt.Format("2006-01-02"))

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, item := range event.Items {
		fmt.Fprintf(tw, "%s\t$%.2f\n", item.Title, float64(item.PriceCents)/100)
	}
	fmt.Fprintf(tw, "Total\t$%.2f\n", float64(event.TotalCents)/100)
	if err := tw.Flush(); err != nil {
		return notif.Attachment{}, err
	}

	return notif.Attachment{
		Filename:    fmt.Sprintf("invoice-%s.txt", event.OrderNumber),
		ContentType: "text/plain",
		Body:        buf.Bytes(),
	}, nil
}
