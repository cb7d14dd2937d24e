package memory

import (
	"context"
	"errors"
	"testing"

	catalog "github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

func reserveOne(t *testing.T, repo *Repository) domain.Order {
	t.Helper()
	repo.AddInstrument(catalog.Instrument{ID: "inst-1", Title: "Parlor Guitar No. 12", PriceCents: 250_000})
	order, err := repo.Reserve(context.Background(), domain.AccountIdentity("acct-1"), "inst-1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	return order
}

func TestUpdateStatusAppliesInstrumentEffectsWithFlip(t *testing.T) {
	repo := NewRepository()
	order := reserveOne(t, repo)

	effects := []domain.Effect{{
		Kind:         domain.EffectReleaseInstrument,
		OrderID:      order.ID,
		InstrumentID: "inst-1",
	}}
	updated, err := repo.UpdateStatus(context.Background(), order.ID,
		domain.StatusPendingPayment, domain.StatusCancelled, effects, "", nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Errorf("expected cancelled, got %s", updated.Status)
	}
	in, _ := repo.Instrument("inst-1")
	if in.Availability != catalog.Available {
		t.Errorf("expected instrument released with the flip, got %s", in.Availability)
	}
}

func TestUpdateStatusRollsBackWhenEffectCannotApply(t *testing.T) {
	repo := NewRepository()
	order := reserveOne(t, repo)

	effects := []domain.Effect{{
		Kind:         domain.EffectReleaseInstrument,
		OrderID:      order.ID,
		InstrumentID: "inst-ghost",
	}}
	_, err := repo.UpdateStatus(context.Background(), order.ID,
		domain.StatusPendingPayment, domain.StatusCancelled, effects, "cancelled", []byte(`{}`))
	if !errors.Is(err, catalog.ErrInstrumentNotFound) {
		t.Fatalf("expected ErrInstrumentNotFound, got %v", err)
	}

	// The failed effect must take the status flip and the outbox row
	// down with it.
	got, err := repo.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusPendingPayment {
		t.Errorf("status flipped despite failed effect: %s", got.Status)
	}
	if entries := repo.Outbox(); len(entries) != 0 {
		t.Errorf("outbox written despite failed effect: %v", entries)
	}
	in, _ := repo.Instrument("inst-1")
	if in.Availability != catalog.Reserved {
		t.Errorf("instrument changed despite failed effect: %s", in.Availability)
	}
}

func TestUpdateStatusConflictOnStaleFrom(t *testing.T) {
	repo := NewRepository()
	order := reserveOne(t, repo)

	if _, err := repo.UpdateStatus(context.Background(), order.ID,
		domain.StatusPendingPayment, domain.StatusPaid, nil, "", nil); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err := repo.UpdateStatus(context.Background(), order.ID,
		domain.StatusPendingPayment, domain.StatusCancelled, nil, "", nil)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale from, got %v", err)
	}
}
