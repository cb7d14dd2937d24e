package application

import (
	"context"

	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

// Mailer is the delivery boundary. The SMTP relay (or a provider API)
// sits behind it in deployment.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string, attachments []Attachment) error
}

// InvoiceRenderer turns a paid order into the invoice document attached
// to the confirmation email.
type InvoiceRenderer interface {
	Render(ctx context.Context, event domain.EffectEvent) (Attachment, error)
}

type Attachment struct {
	Filename    string
	ContentType string
	Body        []byte
}
