package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

type capturedMail struct {
	to          string
	subject     string
	body        string
	attachments []Attachment
}

type fakeMailer struct {
	sent []capturedMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string, attachments []Attachment) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, capturedMail{to: to, subject: subject, body: body, attachments: attachments})
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(ctx context.Context, event domain.EffectEvent) (Attachment, error) {
	return Attachment{Filename: "invoice-" + event.OrderNumber + ".txt", Body: []byte("invoice")}, nil
}

func testEvent(kind domain.EffectKind) domain.EffectEvent {
	return domain.EffectEvent{
		Kind:        kind,
		OrderID:     "ord-1",
		OrderNumber: "ATL-ABCDEF",
		GuestEmail:  "buyer@example.com",
		TotalCents:  250_000,
		Items:       []domain.LineItem{{InstrumentID: "inst-1", Title: "Parlor Guitar No. 12", PriceCents: 250_000}},
		OccurredAt:  time.Now().UTC(),
	}
}

func newNotifService(mailer *fakeMailer) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), mailer, fakeRenderer{})
}

func TestExecuteConfirmation(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newNotifService(mailer)

	if err := svc.Execute(context.Background(), testEvent(domain.EffectSendOrderConfirmation)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "buyer@example.com" {
		t.Errorf("unexpected recipient %q", mail.to)
	}
	if !strings.Contains(mail.subject, "ATL-ABCDEF") {
		t.Errorf("subject missing order number: %q", mail.subject)
	}
	if len(mail.attachments) != 1 {
		t.Errorf("confirmation should carry the invoice, got %d attachments", len(mail.attachments))
	}
	if !strings.Contains(mail.body, "Parlor Guitar No. 12") {
		t.Errorf("body missing line item: %q", mail.body)
	}
}

func TestExecuteShippingNotice(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newNotifService(mailer)

	if err := svc.Execute(context.Background(), testEvent(domain.EffectSendShippingNotice)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	if len(mailer.sent[0].attachments) != 0 {
		t.Error("shipping notice should have no attachments")
	}
}

func TestExecuteMailerFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := newNotifService(mailer)

	err := svc.Execute(context.Background(), testEvent(domain.EffectSendOrderConfirmation))
	if err == nil {
		t.Fatal("expected error to surface for redelivery accounting")
	}
}

func TestExecuteIgnoresInstrumentEffects(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newNotifService(mailer)

	if err := svc.Execute(context.Background(), testEvent(domain.EffectReleaseInstrument)); err != nil {
		t.Fatalf("instrument effect should be ignored, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("instrument effect produced mail: %+v", mailer.sent)
	}
}

func TestExecuteSkipsWithoutRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newNotifService(mailer)

	event := testEvent(domain.EffectSendOrderConfirmation)
	event.GuestEmail = ""
	if err := svc.Execute(context.Background(), event); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("mail sent despite missing recipient")
	}
}
