package console

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

func TestInvoiceRenderer(t *testing.T) {
	r := NewInvoiceRenderer()
	att, err := r.Render(context.Background(), domain.EffectEvent{
		Kind:        domain.EffectSendOrderConfirmation,
		OrderNumber: "ATL-ABCDEF",
		TotalCents:  430_000,
		Items: []domain.LineItem{
			{Title: "Cittern", PriceCents: 180_000},
			{Title: "Parlor Guitar No. 12", PriceCents: 250_000},
		},
		OccurredAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if att.Filename != "invoice-ATL-ABCDEF.txt" {
		t.Errorf("unexpected filename %q", att.Filename)
	}
	body := string(att.Body)
	for _, want := range []string{"INVOICE ATL-ABCDEF", "2026-03-14", "Cittern", "$1800.00", "Total", "$4300.00"} {
		if !strings.Contains(body, want) {
			t.Errorf("invoice missing %q:\n%s", want, body)
		}
	}
}
