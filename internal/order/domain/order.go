package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReservationLimit caps how many pending_payment orders a single
// identity may hold at once.
const ReservationLimit = 2

// LineItem references exactly one instrument. Title and price are
// copied at checkout so the order keeps what the customer saw even if
// the catalog listing changes later.
type LineItem struct {
	InstrumentID string
	Title        string
	PriceCents   int64
}

type Order struct {
	ID         string
	Number     string
	Identity   Identity
	Items      []LineItem
	TotalCents int64
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder builds an order draft in the transient pending state. The
// total is summed here once and never recomputed; the reservation
// admission commits the draft as pending_payment.
func NewOrder(identity Identity, items []LineItem) (Order, error) {
	if err := identity.Validate(); err != nil {
		return Order{}, err
	}
	if len(items) == 0 {
		return Order{}, errors.New("order needs at least one line item")
	}
	for _, item := range items {
		if item.InstrumentID == "" {
			return Order{}, errors.New("line item missing instrument reference")
		}
	}
	var total int64
	for _, item := range items {
		total += item.PriceCents
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	return Order{
		ID:         id,
		Number:     newOrderNumber(id),
		Identity:   identity,
		Items:      items,
		TotalCents: total,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func newOrderNumber(id string) string {
	return fmt.Sprintf("ATL-%s", strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:14])
}
