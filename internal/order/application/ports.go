package application

import (
	"context"

	catalog "github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

// OrderRepository is the persistence boundary for orders. Every method
// is a single transaction at the call boundary.
type OrderRepository interface {
	// Reserve runs the whole admission decision atomically: quota
	// count, conditional instrument flip to reserved, order insert.
	// It fails with *domain.ReservationLimitError,
	// domain.ErrInstrumentUnavailable or catalog's
	// ErrInstrumentNotFound, and no partial state survives a failure.
	Reserve(ctx context.Context, identity domain.Identity, instrumentID string) (domain.Order, error)

	Get(ctx context.Context, id string) (domain.Order, error)

	// UpdateStatus flips the status only when the stored status still
	// equals from (domain.ErrConflict otherwise). The declared
	// instrument effects and, when eventType is non-empty, the
	// notification outbox row commit in the same transaction as the
	// flip: either the whole transition lands or none of it does.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, effects []domain.Effect, eventType string, payload []byte) (domain.Order, error)

	PendingPaymentCountFor(ctx context.Context, identity domain.Identity) (int, error)
	PendingReservationsFor(ctx context.Context, identity domain.Identity) ([]domain.Order, error)
}

// InstrumentRegistry is the catalog's read surface. Instrument writes
// happen inside the order repository's transactions, never here.
type InstrumentRegistry interface {
	Get(ctx context.Context, id string) (catalog.Instrument, error)
}
