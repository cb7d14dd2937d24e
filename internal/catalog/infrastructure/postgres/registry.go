package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry is the catalog side of instrument availability. The order
// repository flips availability inside its own order transactions;
// reads and the maker's own availability changes go through here.
type Registry struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRegistry(log *slog.Logger, pool *pgxpool.Pool) *Registry {
	return &Registry{log: log, pool: pool}
}

func (r *Registry) Get(ctx context.Context, id string) (domain.Instrument, error) {
	var in domain.Instrument
	err := r.pool.QueryRow(ctx, `SELECT id, title, maker, price_cents, availability, created_at, updated_at
		FROM instruments WHERE id=$1`, id).
		Scan(&in.ID, &in.Title, &in.Maker, &in.PriceCents, &in.Availability, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Instrument{}, domain.ErrInstrumentNotFound
	}
	if err != nil {
		return domain.Instrument{}, err
	}
	return in, nil
}

func (r *Registry) SetAvailability(ctx context.Context, id string, a domain.Availability) error {
	ct, err := r.pool.Exec(ctx, `UPDATE instruments SET availability=$2, updated_at=now() WHERE id=$1`, id, a)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInstrumentNotFound
	}
	r.log.Info("instrument availability set", "instrument_id", id, "availability", a)
	return nil
}
