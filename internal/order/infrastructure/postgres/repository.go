package postgres

import (
	"context"
	"errors"
	"log/slog"

	catalog "github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
	"github.com/dmehra2102/Atelier-Order-System/pkg/tracing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Reserve is the admission decision from §"checkout" in one
// transaction: an advisory lock on the identity's quota bucket, the
// pending_payment count, the conditional availability flip and the
// order insert either all commit or none do. The conditional UPDATE on
// the instrument row is the only serialization point two customers
// racing for the same instrument ever share.
func (r *Repository) Reserve(ctx context.Context, identity domain.Identity, instrumentID string) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Serializes concurrent admissions for the same identity so the
	// count below cannot be read twice before either insert lands.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, identity.Key()); err != nil {
		return domain.Order{}, err
	}

	var count int
	err = tx.QueryRow(ctx, `SELECT count(*) FROM orders
		WHERE (customer_account_id = $1 OR guest_email = $2) AND status = $3`,
		nullable(identity.AccountID), nullable(identity.GuestEmail), domain.StatusPendingPayment).Scan(&count)
	if err != nil {
		return domain.Order{}, err
	}
	if count >= domain.ReservationLimit {
		return domain.Order{}, &domain.ReservationLimitError{Count: count, Limit: domain.ReservationLimit}
	}

	var title string
	var priceCents int64
	var availability catalog.Availability
	err = tx.QueryRow(ctx, `SELECT title, price_cents, availability FROM instruments WHERE id = $1 FOR UPDATE`,
		instrumentID).Scan(&title, &priceCents, &availability)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, catalog.ErrInstrumentNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if availability != catalog.Available {
		return domain.Order{}, domain.ErrInstrumentUnavailable
	}

	ct, err := tx.Exec(ctx, `UPDATE instruments SET availability = $2, updated_at = now()
		WHERE id = $1 AND availability = $3`, instrumentID, catalog.Reserved, catalog.Available)
	if err != nil {
		return domain.Order{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Order{}, domain.ErrInstrumentUnavailable
	}

	order, err := domain.NewOrder(identity, []domain.LineItem{{
		InstrumentID: instrumentID,
		Title:        title,
		PriceCents:   priceCents,
	}})
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := order.TransitionTo(domain.StatusPendingPayment); err != nil {
		return domain.Order{}, err
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, number, customer_account_id, guest_email, total_cents, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		order.ID, order.Number, nullable(identity.AccountID), nullable(identity.GuestEmail),
		order.TotalCents, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	for _, item := range order.Items {
		_, err = tx.Exec(ctx, `INSERT INTO order_items (order_id, instrument_id, title, price_cents) VALUES ($1,$2,$3,$4)`,
			order.ID, item.InstrumentID, item.Title, item.PriceCents)
		if err != nil {
			return domain.Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.get(ctx, r.pool, id)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) get(ctx context.Context, q querier, id string) (domain.Order, error) {
	var o domain.Order
	var accountID, guestEmail *string
	err := q.QueryRow(ctx, `SELECT id, number, customer_account_id, guest_email, total_cents, status, created_at, updated_at
		FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Number, &accountID, &guestEmail, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if accountID != nil {
		o.Identity.AccountID = *accountID
	}
	if guestEmail != nil {
		o.Identity.GuestEmail = *guestEmail
	}

	rows, err := q.Query(ctx, `SELECT instrument_id, title, price_cents FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.InstrumentID, &item.Title, &item.PriceCents); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// UpdateStatus flips the status only if the stored value still matches
// from, and commits the instrument effects and the notification outbox
// row in the same transaction. A mismatch surfaces as ErrConflict so
// the caller can re-fetch and retry; any failure rolls the whole
// transition back, so an instrument can never stay reserved past a
// committed cancel.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, effects []domain.Effect, eventType string, payload []byte) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return domain.Order{}, err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return domain.Order{}, err
		}
		if !exists {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, domain.ErrConflict
	}

	for _, eff := range effects {
		target, ok := availabilityFor(eff.Kind)
		if !ok {
			continue
		}
		ct, err := tx.Exec(ctx, `UPDATE instruments SET availability = $2, updated_at = now() WHERE id = $1`,
			eff.InstrumentID, target)
		if err != nil {
			return domain.Order{}, err
		}
		if ct.RowsAffected() == 0 {
			return domain.Order{}, catalog.ErrInstrumentNotFound
		}
	}

	if eventType != "" {
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
			"order", id, eventType, payload, map[string]string{"source": "order-service"},
			tracing.TraceparentFromContext(ctx))
		if err != nil {
			return domain.Order{}, err
		}
	}

	order, err := r.get(ctx, tx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *Repository) PendingPaymentCountFor(ctx context.Context, identity domain.Identity) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders
		WHERE (customer_account_id = $1 OR guest_email = $2) AND status = $3`,
		nullable(identity.AccountID), nullable(identity.GuestEmail), domain.StatusPendingPayment).Scan(&count)
	return count, err
}

func (r *Repository) PendingReservationsFor(ctx context.Context, identity domain.Identity) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM orders
		WHERE (customer_account_id = $1 OR guest_email = $2) AND status = $3
		ORDER BY created_at`,
		nullable(identity.AccountID), nullable(identity.GuestEmail), domain.StatusPendingPayment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.get(ctx, r.pool, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// availabilityFor maps an instrument effect to the availability it
// writes. Notification effects are delivered through the outbox and
// report no target here.
func availabilityFor(kind domain.EffectKind) (catalog.Availability, bool) {
	switch kind {
	case domain.EffectReleaseInstrument:
		return catalog.Available, true
	case domain.EffectMarkInstrumentSold:
		return catalog.Sold, true
	}
	return "", false
}

// nullable maps an empty identity half to NULL so the XOR invariant is
// visible in the rows themselves.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
