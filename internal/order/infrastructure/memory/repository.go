// Package memory backs the order repository and instrument registry
// with in-process maps. It mirrors the transactional guarantees of the
// postgres implementation under a single mutex, which makes it the
// harness for unit tests and for running the service without a
// database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	catalog "github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

// OutboxEntry captures what the postgres implementation would have
// written to the outbox table.
type OutboxEntry struct {
	Type        string
	AggregateID string
	Payload     []byte
	CreatedAt   time.Time
}

type Repository struct {
	mu          sync.Mutex
	instruments map[string]catalog.Instrument
	orders      map[string]domain.Order
	outbox      []OutboxEntry
}

func NewRepository() *Repository {
	return &Repository{
		instruments: make(map[string]catalog.Instrument),
		orders:      make(map[string]domain.Order),
	}
}

// AddInstrument seeds a catalog item.
func (r *Repository) AddInstrument(in catalog.Instrument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.Availability == "" {
		in.Availability = catalog.Available
	}
	r.instruments[in.ID] = in
}

func (r *Repository) Reserve(ctx context.Context, identity domain.Identity, instrumentID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.pendingCountLocked(identity)
	if count >= domain.ReservationLimit {
		return domain.Order{}, &domain.ReservationLimitError{Count: count, Limit: domain.ReservationLimit}
	}

	in, ok := r.instruments[instrumentID]
	if !ok {
		return domain.Order{}, catalog.ErrInstrumentNotFound
	}
	if in.Availability != catalog.Available {
		return domain.Order{}, domain.ErrInstrumentUnavailable
	}

	order, err := domain.NewOrder(identity, []domain.LineItem{{
		InstrumentID: in.ID,
		Title:        in.Title,
		PriceCents:   in.PriceCents,
	}})
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := order.TransitionTo(domain.StatusPendingPayment); err != nil {
		return domain.Order{}, err
	}

	in.Availability = catalog.Reserved
	in.UpdatedAt = time.Now().UTC()
	r.instruments[instrumentID] = in
	r.orders[order.ID] = order
	return order, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, effects []domain.Effect, eventType string, payload []byte) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if o.Status != from {
		return domain.Order{}, domain.ErrConflict
	}

	// Stage the instrument flips before touching anything, so a bad
	// effect rolls the whole transition back like the postgres
	// transaction does.
	flips := make(map[string]catalog.Availability)
	for _, eff := range effects {
		target, ok := availabilityFor(eff.Kind)
		if !ok {
			continue
		}
		if _, ok := r.instruments[eff.InstrumentID]; !ok {
			return domain.Order{}, catalog.ErrInstrumentNotFound
		}
		flips[eff.InstrumentID] = target
	}

	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	for instrumentID, target := range flips {
		in := r.instruments[instrumentID]
		in.Availability = target
		in.UpdatedAt = time.Now().UTC()
		r.instruments[instrumentID] = in
	}

	if eventType != "" {
		r.outbox = append(r.outbox, OutboxEntry{
			Type:        eventType,
			AggregateID: id,
			Payload:     payload,
			CreatedAt:   time.Now().UTC(),
		})
	}
	return o, nil
}

func (r *Repository) PendingPaymentCountFor(ctx context.Context, identity domain.Identity) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingCountLocked(identity), nil
}

func (r *Repository) PendingReservationsFor(ctx context.Context, identity domain.Identity) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []domain.Order
	for _, o := range r.orders {
		if o.Identity.Key() == identity.Key() && o.Status == domain.StatusPendingPayment {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

// availabilityFor maps an instrument effect to the availability it
// writes; notification effects carry no instrument target.
func availabilityFor(kind domain.EffectKind) (catalog.Availability, bool) {
	switch kind {
	case domain.EffectReleaseInstrument:
		return catalog.Available, true
	case domain.EffectMarkInstrumentSold:
		return catalog.Sold, true
	}
	return "", false
}

func (r *Repository) pendingCountLocked(identity domain.Identity) int {
	count := 0
	for _, o := range r.orders {
		if o.Identity.Key() == identity.Key() && o.Status == domain.StatusPendingPayment {
			count++
		}
	}
	return count
}

// Registry view over the same map, so reservation flips and effect
// execution see one instrument state like they do against postgres.

func (r *Repository) Instrument(id string) (catalog.Instrument, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.instruments[id]
	return in, ok
}

func (r *Repository) Outbox() []OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]OutboxEntry, len(r.outbox))
	copy(entries, r.outbox)
	return entries
}

// Registry exposes the instrument half of the store under the
// catalog's read contract.
func (r *Repository) Registry() *Registry { return &Registry{repo: r} }

type Registry struct {
	repo *Repository
}

func (g *Registry) Get(ctx context.Context, id string) (catalog.Instrument, error) {
	g.repo.mu.Lock()
	defer g.repo.mu.Unlock()
	in, ok := g.repo.instruments[id]
	if !ok {
		return catalog.Instrument{}, catalog.ErrInstrumentNotFound
	}
	return in, nil
}
