package application

import (
	"time"

	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

// PendingReservation is the per-order entry in the quota view. Field
// names are a stable contract with the storefront UI.
type PendingReservation struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	PriceCents int64     `json:"price"`
}

type ReservationQuota struct {
	Count               int                  `json:"count"`
	Limit               int                  `json:"limit"`
	PendingReservations []PendingReservation `json:"pendingReservations"`
}

func newPendingReservation(o domain.Order) PendingReservation {
	name := ""
	if len(o.Items) > 0 {
		name = o.Items[0].Title
	}
	return PendingReservation{
		ID:         o.ID,
		Name:       name,
		Date:       o.CreatedAt,
		PriceCents: o.TotalCents,
	}
}
