package domain

import (
	"errors"
	"testing"
)

func newTestOrder(t *testing.T, status OrderStatus) *Order {
	t.Helper()
	order, err := NewOrder(GuestIdentity("buyer@example.com"), []LineItem{
		{InstrumentID: "inst-1", Title: "Parlor Guitar No. 12", PriceCents: 250_000},
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	order.Status = status
	return &order
}

func allStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending, StatusPendingPayment, StatusPaid, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded,
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:        {StatusPendingPayment, StatusCancelled},
		StatusPendingPayment: {StatusPaid, StatusCancelled},
		StatusPaid:           {StatusProcessing, StatusRefunded},
		StatusProcessing:     {StatusShipped, StatusRefunded},
		StatusShipped:        {StatusDelivered, StatusRefunded},
		StatusDelivered:      {},
		StatusCancelled:      {},
		StatusRefunded:       {},
	}

	for _, from := range allStatuses() {
		for _, to := range allStatuses() {
			if from == to {
				continue
			}
			legal := false
			for _, a := range allowed[from] {
				if a == to {
					legal = true
				}
			}

			order := newTestOrder(t, from)
			_, err := order.TransitionTo(to)
			if legal && err != nil {
				t.Errorf("%s -> %s: expected success, got %v", from, to, err)
			}
			if !legal {
				var invalidErr *InvalidTransitionError
				if !errors.As(err, &invalidErr) {
					t.Errorf("%s -> %s: expected InvalidTransitionError, got %v", from, to, err)
					continue
				}
				if invalidErr.From != from || invalidErr.To != to {
					t.Errorf("%s -> %s: error names %s -> %s", from, to, invalidErr.From, invalidErr.To)
				}
				if order.Status != from {
					t.Errorf("%s -> %s: rejected transition mutated order to %s", from, to, order.Status)
				}
			}
		}
	}
}

func TestTransitionIdempotent(t *testing.T) {
	order := newTestOrder(t, StatusPendingPayment)

	effects, err := order.TransitionTo(StatusPaid)
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if len(effects) != 1 || effects[0].Kind != EffectSendOrderConfirmation {
		t.Fatalf("expected confirmation effect, got %v", effects)
	}

	// Second delivery of the same webhook: no-op success, no effects.
	effects, err = order.TransitionTo(StatusPaid)
	if err != nil {
		t.Fatalf("duplicate transition: %v", err)
	}
	if len(effects) != 0 {
		t.Errorf("duplicate transition emitted effects: %v", effects)
	}
	if order.Status != StatusPaid {
		t.Errorf("expected status %s, got %s", StatusPaid, order.Status)
	}
}

func TestTransitionUnknownTarget(t *testing.T) {
	order := newTestOrder(t, StatusPendingPayment)
	_, err := order.TransitionTo(OrderStatus("archived"))
	var invalidErr *InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if order.Status != StatusPendingPayment {
		t.Errorf("rejected transition mutated order to %s", order.Status)
	}
}

func TestTransitionEffects(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want []EffectKind
	}{
		{"reserve emits nothing", StatusPending, StatusPendingPayment, nil},
		{"paid sends confirmation", StatusPendingPayment, StatusPaid, []EffectKind{EffectSendOrderConfirmation}},
		{"processing emits nothing", StatusPaid, StatusProcessing, nil},
		{"shipped sends notice", StatusProcessing, StatusShipped, []EffectKind{EffectSendShippingNotice}},
		{"delivered marks sold", StatusShipped, StatusDelivered, []EffectKind{EffectMarkInstrumentSold}},
		{"cancel releases reservation", StatusPendingPayment, StatusCancelled, []EffectKind{EffectReleaseInstrument}},
		{"refund from paid releases", StatusPaid, StatusRefunded, []EffectKind{EffectReleaseInstrument}},
		{"refund from shipped releases", StatusShipped, StatusRefunded, []EffectKind{EffectReleaseInstrument}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newTestOrder(t, tt.from)
			effects, err := order.TransitionTo(tt.to)
			if err != nil {
				t.Fatalf("transition: %v", err)
			}
			if len(effects) != len(tt.want) {
				t.Fatalf("expected %d effects, got %v", len(tt.want), effects)
			}
			for i, kind := range tt.want {
				if effects[i].Kind != kind {
					t.Errorf("effect %d: expected %s, got %s", i, kind, effects[i].Kind)
				}
				if effects[i].OrderID != order.ID {
					t.Errorf("effect %d: order id %s, want %s", i, effects[i].OrderID, order.ID)
				}
			}
		})
	}
}

func TestInstrumentEffectsCarryInstrumentID(t *testing.T) {
	order := newTestOrder(t, StatusShipped)
	effects, err := order.TransitionTo(StatusDelivered)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(effects) != 1 {
		t.Fatalf("expected one effect per line item, got %d", len(effects))
	}
	if effects[0].InstrumentID != "inst-1" {
		t.Errorf("expected instrument inst-1, got %q", effects[0].InstrumentID)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []OrderStatus{StatusDelivered, StatusCancelled, StatusRefunded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []OrderStatus{StatusPending, StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTransitionBumpsUpdatedAt(t *testing.T) {
	order := newTestOrder(t, StatusPendingPayment)
	before := order.UpdatedAt
	if _, err := order.TransitionTo(StatusPaid); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if order.UpdatedAt.Before(before) {
		t.Error("UpdatedAt went backwards")
	}
	if order.CreatedAt.After(order.UpdatedAt) {
		t.Error("CreatedAt after UpdatedAt")
	}
}
