package domain

import "time"

type OrderStatus string

const (
	// StatusPending is the transient pre-reservation state: the draft
	// exists but admission has not run. Abandoned drafts are reaped
	// outside this core and never count toward the quota.
	StatusPending        OrderStatus = "pending"
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusRefunded       OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal states keep the order for history; no further transition is
// permitted out of them.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// transitions is the whole lifecycle. Anything absent here fails with
// InvalidTransitionError.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusPendingPayment, StatusCancelled},
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusProcessing, StatusRefunded},
	StatusProcessing:     {StatusShipped, StatusRefunded},
	StatusShipped:        {StatusDelivered, StatusRefunded},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusRefunded:       {},
}

func (s OrderStatus) canTransitionTo(target OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the order to target and returns the effects the
// caller must carry out. It performs no I/O. Re-requesting the current
// status is a no-op success with no effects, so duplicate webhook
// deliveries stay harmless. An illegal target leaves the order
// unchanged.
func (o *Order) TransitionTo(target OrderStatus) ([]Effect, error) {
	if !target.Valid() {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}
	if o.Status == target {
		return nil, nil
	}
	if !o.Status.canTransitionTo(target) {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}
	o.Status = target
	o.UpdatedAt = time.Now().UTC()
	return o.effectsFor(target), nil
}

func (o *Order) effectsFor(entered OrderStatus) []Effect {
	var effects []Effect
	switch entered {
	case StatusPaid:
		effects = append(effects, Effect{Kind: EffectSendOrderConfirmation, OrderID: o.ID})
	case StatusShipped:
		effects = append(effects, Effect{Kind: EffectSendShippingNotice, OrderID: o.ID})
	case StatusDelivered:
		for _, item := range o.Items {
			effects = append(effects, Effect{Kind: EffectMarkInstrumentSold, OrderID: o.ID, InstrumentID: item.InstrumentID})
		}
	case StatusCancelled, StatusRefunded:
		// The reservation is handed back. A refunded instrument goes to
		// available rather than a distinct returned status.
		for _, item := range o.Items {
			effects = append(effects, Effect{Kind: EffectReleaseInstrument, OrderID: o.ID, InstrumentID: item.InstrumentID})
		}
	}
	return effects
}
