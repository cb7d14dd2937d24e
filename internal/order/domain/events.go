package domain

import "time"

// EffectEvent is the outbox payload for notification effects. The
// notification service consumes it verbatim, so the shape is part of
// the external contract.
type EffectEvent struct {
	Kind        EffectKind `json:"kind"`
	OrderID     string     `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	AccountID   string     `json:"account_id,omitempty"`
	GuestEmail  string     `json:"guest_email,omitempty"`
	TotalCents  int64      `json:"total_cents"`
	Items       []LineItem `json:"items"`
	Actor       string     `json:"actor,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

func NewEffectEvent(o Order, kind EffectKind, actor string) EffectEvent {
	return EffectEvent{
		Kind:        kind,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		AccountID:   o.Identity.AccountID,
		GuestEmail:  o.Identity.GuestEmail,
		TotalCents:  o.TotalCents,
		Items:       o.Items,
		Actor:       actor,
		OccurredAt:  time.Now().UTC(),
	}
}
