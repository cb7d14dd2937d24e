package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

type Service struct {
	log      *slog.Logger
	mailer   Mailer
	invoices InvoiceRenderer
}

func NewService(log *slog.Logger, mailer Mailer, invoices InvoiceRenderer) *Service {
	return &Service{log: log, mailer: mailer, invoices: invoices}
}

// Execute carries out one declared notification effect. The order
// transition that produced it is already committed; a failure here is
// reported for redelivery, never back to the order.
func (s *Service) Execute(ctx context.Context, event domain.EffectEvent) error {
	switch event.Kind {
	case domain.EffectSendOrderConfirmation:
		return s.sendConfirmation(ctx, event)
	case domain.EffectSendShippingNotice:
		return s.sendShippingNotice(ctx, event)
	default:
		// Instrument effects are applied by the order side; seeing one
		// here means a producer bug, not a retryable failure.
		s.log.Warn("ignoring non-notification effect", "kind", event.Kind, "order_id", event.OrderID)
		return nil
	}
}

func (s *Service) sendConfirmation(ctx context.Context, event domain.EffectEvent) error {
	to := recipient(event)
	if to == "" {
		s.log.Warn("no recipient for confirmation, skipping", "order_id", event.OrderID)
		return nil
	}

	invoice, err := s.invoices.Render(ctx, event)
	if err != nil {
		return fmt.Errorf("render invoice for %s: %w", event.OrderNumber, err)
	}
	subject := fmt.Sprintf("Order %s confirmed", event.OrderNumber)
	body := confirmationBody(event)
	if err := s.mailer.Send(ctx, to, subject, body, []Attachment{invoice}); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", event.OrderNumber, err)
	}
	s.log.Info("order confirmation sent", "order_id", event.OrderID, "order_number", event.OrderNumber)
	return nil
}

func (s *Service) sendShippingNotice(ctx context.Context, event domain.EffectEvent) error {
	to := recipient(event)
	if to == "" {
		s.log.Warn("no recipient for shipping notice, skipping", "order_id", event.OrderID)
		return nil
	}
	subject := fmt.Sprintf("Order %s has shipped", event.OrderNumber)
	body := shippingBody(event)
	if err := s.mailer.Send(ctx, to, subject, body, nil); err != nil {
		return fmt.Errorf("send shipping notice for %s: %w", event.OrderNumber, err)
	}
	s.log.Info("shipping notice sent", "order_id", event.OrderID, "order_number", event.OrderNumber)
	return nil
}

// recipient resolves the delivery address. Guest orders carry the email
// directly; account orders use the address book convention of the
// account service.
func recipient(event domain.EffectEvent) string {
	if event.GuestEmail != "" {
		return event.GuestEmail
	}
	if event.AccountID != "" {
		return event.AccountID + "@accounts.internal"
	}
	return ""
}

func confirmationBody(event domain.EffectEvent) string {
	body := fmt.Sprintf("Thank you for your order %s.\n\n", event.OrderNumber)
	for _, item := range event.Items {
		body += fmt.Sprintf("  %s — $%.2f\n", item.Title, float64(item.PriceCents)/100)
	}
	body += fmt.Sprintf("\nTotal: $%.2f\n", float64(event.TotalCents)/100)
	return body
}

func shippingBody(event domain.EffectEvent) string {
	body := fmt.Sprintf("Your order %s is on its way.\n\n", event.OrderNumber)
	for _, item := range event.Items {
		body += fmt.Sprintf("  %s\n", item.Title)
	}
	return body
}
