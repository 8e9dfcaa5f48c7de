package repository

import (
	"context"
	"database/sql"

	"github.com/arenatix/ticketing/internal/model"
)

// TierRepo is the authoritative store for ticket tiers. AvailableQuantity
// is one of the two pieces of mutable shared state in the whole core (the
// other is the ticket used flag); it is mutated exclusively through
// ReserveCapacity's single conditional UPDATE and the controlled admin
// adjustment, never by read-then-write sequences.
type TierRepo struct {
	db *sql.DB
}

// NewTierRepo constructs a TierRepo given a DB handle.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// GetByID returns a single tier or ErrTierNotFound.
func (r *TierRepo) GetByID(ctx context.Context, id uint64) (model.TicketTier, error) {
	const q = `SELECT id, name, total_quantity, available_quantity, base_price_ref, is_active
	           FROM ticket_tiers WHERE id = ?`
	var t model.TicketTier
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.TotalQuantity, &t.AvailableQuantity, &t.BasePriceRef, &t.IsActive,
	)
	if err == sql.ErrNoRows {
		return model.TicketTier{}, ErrTierNotFound
	}
	if err != nil {
		return model.TicketTier{}, err
	}
	return t, nil
}

// List returns all tiers ordered by id. Used by the public storefront
// listing and the admin screens.
func (r *TierRepo) List(ctx context.Context) ([]model.TicketTier, error) {
	const q = `SELECT id, name, total_quantity, available_quantity, base_price_ref, is_active
	           FROM ticket_tiers ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tiers []model.TicketTier
	for rows.Next() {
		var t model.TicketTier
		if err := rows.Scan(&t.ID, &t.Name, &t.TotalQuantity, &t.AvailableQuantity, &t.BasePriceRef, &t.IsActive); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// Create inserts a new tier and returns its id. The tier must come from
// model.NewTicketTier so quantity invariants already hold.
func (r *TierRepo) Create(ctx context.Context, t model.TicketTier) (uint64, error) {
	const q = `INSERT INTO ticket_tiers (name, total_quantity, available_quantity, base_price_ref, is_active)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.TotalQuantity, t.AvailableQuantity, t.BasePriceRef, t.IsActive)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update changes the admin-editable fields: name, base price reference and
// the active flag. Quantities are not updatable here; use AdjustCapacity.
func (r *TierRepo) Update(ctx context.Context, id uint64, name, basePriceRef string, isActive bool) error {
	const q = `UPDATE ticket_tiers SET name = ?, base_price_ref = ?, is_active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, basePriceRef, isActive, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and a no-op update on
		// MySQL, so confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ReserveCapacity atomically checks that the tier is active with at least
// qty seats remaining and decrements by qty in the same statement. This is
// the only capacity-decrementing operation in the system and it runs at
// issuance time, after payment confirmation, not at checkout. Two
// concurrent callers racing for the last seats are serialized by the row
// lock; the loser's UPDATE matches zero rows, so availability can never go
// negative.
func (r *TierRepo) ReserveCapacity(ctx context.Context, id uint64, qty int) error {
	if qty <= 0 {
		return nil
	}
	const q = `UPDATE ticket_tiers
	           SET available_quantity = available_quantity - ?
	           WHERE id = ? AND is_active = 1 AND available_quantity >= ?`
	res, err := r.db.ExecContext(ctx, q, qty, id, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Zero rows: the precondition failed. A follow-up read only classifies
	// the failure for the caller; the reservation decision was already made
	// atomically above.
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return err // ErrTierNotFound or a real DB error
	}
	if !t.IsActive {
		return ErrTierInactive
	}
	return ErrInsufficientCapacity
}

// AdjustCapacity applies a controlled admin adjustment of delta seats
// (positive restores, negative removes). The conditional keeps
// 0 <= available <= total at all times; an adjustment that would leave the
// range fails with ErrInsufficientCapacity rather than clamping silently.
func (r *TierRepo) AdjustCapacity(ctx context.Context, id uint64, delta int) error {
	if delta == 0 {
		return nil
	}
	const q = `UPDATE ticket_tiers
	           SET available_quantity = available_quantity + ?
	           WHERE id = ?
	             AND available_quantity + ? >= 0
	             AND available_quantity + ? <= total_quantity`
	res, err := r.db.ExecContext(ctx, q, delta, id, delta, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientCapacity
	}
	return nil
}
