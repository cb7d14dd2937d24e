package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewOrderTotals(t *testing.T) {
	order, err := NewOrder(AccountIdentity("acct-7"), []LineItem{
		{InstrumentID: "inst-1", Title: "Cittern", PriceCents: 180_000},
		{InstrumentID: "inst-2", Title: "Octave Mandolin", PriceCents: 220_000},
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if order.TotalCents != 400_000 {
		t.Errorf("expected total 400000, got %d", order.TotalCents)
	}
	if order.Status != StatusPending {
		t.Errorf("expected draft status %s, got %s", StatusPending, order.Status)
	}
	if !strings.HasPrefix(order.Number, "ATL-") {
		t.Errorf("order number %q missing prefix", order.Number)
	}
	if order.ID == "" {
		t.Error("order id not set")
	}
}

func TestNewOrderValidation(t *testing.T) {
	if _, err := NewOrder(AccountIdentity("acct-7"), nil); err == nil {
		t.Error("expected error for empty items")
	}
	if _, err := NewOrder(AccountIdentity("acct-7"), []LineItem{{Title: "No ref"}}); err == nil {
		t.Error("expected error for missing instrument reference")
	}
}

func TestIdentityValidation(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		wantErr  bool
	}{
		{"account only", AccountIdentity("acct-1"), false},
		{"guest only", GuestIdentity("g@example.com"), false},
		{"both set", Identity{AccountID: "acct-1", GuestEmail: "g@example.com"}, true},
		{"neither set", Identity{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.identity.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidIdentity) {
				t.Errorf("expected ErrInvalidIdentity, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestIdentityKey(t *testing.T) {
	if got := AccountIdentity("acct-1").Key(); got != "account:acct-1" {
		t.Errorf("account key: %q", got)
	}
	if got := GuestIdentity("g@example.com").Key(); got != "guest:g@example.com" {
		t.Errorf("guest key: %q", got)
	}
}

func TestOrderNumbersDiffer(t *testing.T) {
	items := []LineItem{{InstrumentID: "inst-1", Title: "Tenor Banjo", PriceCents: 120_000}}
	a, _ := NewOrder(AccountIdentity("acct-1"), items)
	b, _ := NewOrder(AccountIdentity("acct-1"), items)
	if a.Number == b.Number {
		t.Errorf("two orders share number %s", a.Number)
	}
}
