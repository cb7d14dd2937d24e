package domain

type EffectKind string

const (
	EffectSendOrderConfirmation EffectKind = "send_order_confirmation"
	EffectSendShippingNotice    EffectKind = "send_shipping_notice"
	EffectReleaseInstrument     EffectKind = "release_instrument_reservation"
	EffectMarkInstrumentSold    EffectKind = "mark_instrument_sold"
)

// Effect is a declared side effect of a lifecycle transition. The
// engine only emits these; the application layer carries them out, so
// the state machine stays free of I/O. InstrumentID is set for the
// instrument effects, empty for the notification effects.
type Effect struct {
	Kind         EffectKind
	OrderID      string
	InstrumentID string
}

// Notification reports whether the effect is delivered through the
// notification pipeline rather than applied to instrument state.
func (e Effect) Notification() bool {
	return e.Kind == EffectSendOrderConfirmation || e.Kind == EffectSendShippingNotice
}
