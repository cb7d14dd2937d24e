package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	catalog "github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
)

// maxTransitionAttempts bounds the re-fetch loop after an
// optimistic-concurrency conflict so racing webhooks cannot livelock.
const maxTransitionAttempts = 3

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	registry InstrumentRegistry
}

func NewService(log *slog.Logger, repo OrderRepository, registry InstrumentRegistry) *Service {
	return &Service{log: log, repo: repo, registry: registry}
}

// TryReserve admits a checkout attempt. The repository call is the
// single serialization point: two racing calls for one instrument end
// with exactly one reservation, and racing calls by one identity cannot
// jointly exceed the quota.
func (s *Service) TryReserve(ctx context.Context, identity domain.Identity, instrumentID string) (domain.Order, error) {
	if err := identity.Validate(); err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.Reserve(ctx, identity, instrumentID)
	if err != nil {
		var limitErr *domain.ReservationLimitError
		switch {
		case errors.As(err, &limitErr):
			s.log.Info("reservation rejected by quota", "identity", identity.Key(), "count", limitErr.Count, "limit", limitErr.Limit)
		case errors.Is(err, domain.ErrInstrumentUnavailable):
			s.log.Info("reservation lost instrument race", "identity", identity.Key(), "instrument_id", instrumentID)
		}
		return domain.Order{}, err
	}

	s.log.Info("reservation created", "order_id", order.ID, "order_number", order.Number,
		"identity", identity.Key(), "instrument_id", instrumentID)
	return order, nil
}

// Transition applies one lifecycle step. The state machine itself is
// pure; this layer persists the flip with an optimistic check, with
// the instrument effects and the notification outbox row committing in
// the same transaction. Re-requesting the current status succeeds as a
// no-op, so duplicate webhook deliveries are safe.
func (s *Service) Transition(ctx context.Context, orderID string, target domain.OrderStatus, actor string) (domain.Order, []domain.Effect, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		order, err := s.repo.Get(ctx, orderID)
		if err != nil {
			return domain.Order{}, nil, err
		}
		prior := order.Status

		effects, err := order.TransitionTo(target)
		if err != nil {
			s.log.Error("invalid transition requested", "order_id", orderID, "from", prior, "to", target, "actor", actor)
			return domain.Order{}, nil, err
		}
		if order.Status == prior {
			s.log.Info("transition already applied", "order_id", orderID, "status", prior, "actor", actor)
			return order, nil, nil
		}

		eventType, payload, err := notificationEvent(order, effects, actor)
		if err != nil {
			return domain.Order{}, nil, err
		}

		updated, err := s.repo.UpdateStatus(ctx, orderID, prior, order.Status, effects, eventType, payload)
		if errors.Is(err, domain.ErrConflict) {
			s.log.Warn("transition conflict, retrying", "order_id", orderID, "to", target, "attempt", attempt)
			continue
		}
		if err != nil {
			return domain.Order{}, nil, err
		}

		s.log.Info("order transitioned", "order_id", orderID, "from", prior, "to", updated.Status, "actor", actor)
		return updated, effects, nil
	}
	return domain.Order{}, nil, domain.ErrConflict
}

func notificationEvent(order domain.Order, effects []domain.Effect, actor string) (string, []byte, error) {
	for _, eff := range effects {
		if !eff.Notification() {
			continue
		}
		payload, err := json.Marshal(domain.NewEffectEvent(order, eff.Kind, actor))
		if err != nil {
			return "", nil, err
		}
		return string(eff.Kind), payload, nil
	}
	return "", nil, nil
}

// Reservations returns the quota view the storefront renders next to
// checkout. Paid orders drop out automatically because the count reads
// live status.
func (s *Service) Reservations(ctx context.Context, identity domain.Identity) (ReservationQuota, error) {
	if err := identity.Validate(); err != nil {
		return ReservationQuota{}, err
	}
	count, err := s.repo.PendingPaymentCountFor(ctx, identity)
	if err != nil {
		return ReservationQuota{}, err
	}
	orders, err := s.repo.PendingReservationsFor(ctx, identity)
	if err != nil {
		return ReservationQuota{}, err
	}
	quota := ReservationQuota{
		Count:               count,
		Limit:               domain.ReservationLimit,
		PendingReservations: make([]PendingReservation, 0, len(orders)),
	}
	for _, o := range orders {
		quota.PendingReservations = append(quota.PendingReservations, newPendingReservation(o))
	}
	return quota, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Instrument(ctx context.Context, id string) (catalog.Instrument, error) {
	return s.registry.Get(ctx, id)
}
