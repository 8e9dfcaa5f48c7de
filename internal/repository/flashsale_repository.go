package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/arenatix/ticketing/internal/model"
)

// SaleRepo persists flash sales. A sale's target tiers live in the
// flash_sale_tiers join table; every read reassembles the full target set
// so callers always see complete model.FlashSale values. The repo stores
// and compares all window timestamps in UTC.
//
// The non-overlap invariant itself is enforced by the registry service
// (read candidates, check with pricing.Overlaps, then write); this layer
// only supplies the candidate queries. That read-then-write sequence is an
// accepted relaxation for the low-concurrency trusted admin path, unlike
// the purchase and redemption paths which are single conditional writes.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo constructs a SaleRepo given a DB handle.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// Create inserts the sale and its target tiers in one transaction and
// returns the new id.
func (r *SaleRepo) Create(ctx context.Context, s model.FlashSale) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO flash_sales (title, start_at, end_at, sale_price_ref, base_price_ref_snapshot, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.Title, s.StartAt.UTC(), s.EndAt.UTC(), s.SalePriceRef, s.BasePriceRefSnapshot, s.IsActive,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertTargets(ctx, tx, uint64(id), s.TargetTierIDs); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// Update rewrites the sale row and replaces its target set in one
// transaction. The caller (registry) has already re-run the overlap check
// against the patched values.
func (r *SaleRepo) Update(ctx context.Context, id uint64, s model.FlashSale) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE flash_sales
		 SET title = ?, start_at = ?, end_at = ?, sale_price_ref = ?, base_price_ref_snapshot = ?, is_active = ?
		 WHERE id = ?`,
		s.Title, s.StartAt.UTC(), s.EndAt.UTC(), s.SalePriceRef, s.BasePriceRefSnapshot, s.IsActive, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flash_sale_tiers WHERE sale_id = ?`, id); err != nil {
		return err
	}
	if err := insertTargets(ctx, tx, id, s.TargetTierIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes the sale; target rows go with it via the join table
// delete. Deletion never needs an overlap check.
func (r *SaleRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM flash_sale_tiers WHERE sale_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM flash_sales WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSaleNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetActive toggles the administrative switch. Activation overlap checking
// is the registry's responsibility; deactivation never needs one.
func (r *SaleRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE flash_sales SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns a single sale with its target set, or ErrSaleNotFound.
func (r *SaleRepo) GetByID(ctx context.Context, id uint64) (model.FlashSale, error) {
	const q = `SELECT id, title, start_at, end_at, sale_price_ref, base_price_ref_snapshot, is_active
	           FROM flash_sales WHERE id = ?`
	var s model.FlashSale
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Title, &s.StartAt, &s.EndAt, &s.SalePriceRef, &s.BasePriceRefSnapshot, &s.IsActive,
	)
	if err == sql.ErrNoRows {
		return model.FlashSale{}, ErrSaleNotFound
	}
	if err != nil {
		return model.FlashSale{}, err
	}
	targets, err := r.targetsFor(ctx, []uint64{id})
	if err != nil {
		return model.FlashSale{}, err
	}
	s.TargetTierIDs = targets[id]
	return s, nil
}

// List returns every sale ordered by start time, targets included.
func (r *SaleRepo) List(ctx context.Context) ([]model.FlashSale, error) {
	const q = `SELECT id, title, start_at, end_at, sale_price_ref, base_price_ref_snapshot, is_active
	           FROM flash_sales ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []model.FlashSale
	var ids []uint64
	for rows.Next() {
		var s model.FlashSale
		if err := rows.Scan(&s.ID, &s.Title, &s.StartAt, &s.EndAt, &s.SalePriceRef, &s.BasePriceRefSnapshot, &s.IsActive); err != nil {
			return nil, err
		}
		sales = append(sales, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	targets, err := r.targetsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].TargetTierIDs = targets[sales[i].ID]
	}
	return sales, nil
}

// ListActiveSharingTiers returns all active sales (other than excludeID)
// that target at least one of the given tiers. These are the overlap-check
// candidates: inactive sales cannot be in force, so they never conflict.
func (r *SaleRepo) ListActiveSharingTiers(ctx context.Context, tierIDs []uint64, excludeID uint64) ([]model.FlashSale, error) {
	if len(tierIDs) == 0 {
		return nil, nil
	}
	q := `SELECT DISTINCT fs.id, fs.title, fs.start_at, fs.end_at, fs.sale_price_ref, fs.base_price_ref_snapshot, fs.is_active
	      FROM flash_sales fs
	      JOIN flash_sale_tiers fst ON fst.sale_id = fs.id
	      WHERE fs.is_active = 1 AND fs.id != ? AND fst.tier_id IN (` + placeholders(len(tierIDs)) + `)
	      ORDER BY fs.id`
	args := make([]interface{}, 0, len(tierIDs)+1)
	args = append(args, excludeID)
	for _, id := range tierIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []model.FlashSale
	var ids []uint64
	for rows.Next() {
		var s model.FlashSale
		if err := rows.Scan(&s.ID, &s.Title, &s.StartAt, &s.EndAt, &s.SalePriceRef, &s.BasePriceRefSnapshot, &s.IsActive); err != nil {
			return nil, err
		}
		sales = append(sales, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	targets, err := r.targetsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].TargetTierIDs = targets[sales[i].ID]
	}
	return sales, nil
}

// FindActiveForTier returns the sale in force for the tier at the given
// instant, or nil when there is none. The half-open window rule lives in
// the WHERE clause: start_at <= now AND end_at > now. Creation-time overlap
// checking guarantees at most one row can match.
func (r *SaleRepo) FindActiveForTier(ctx context.Context, tierID uint64, now time.Time) (*model.FlashSale, error) {
	const q = `SELECT fs.id, fs.title, fs.start_at, fs.end_at, fs.sale_price_ref, fs.base_price_ref_snapshot, fs.is_active
	           FROM flash_sales fs
	           JOIN flash_sale_tiers fst ON fst.sale_id = fs.id
	           WHERE fst.tier_id = ? AND fs.is_active = 1 AND fs.start_at <= ? AND fs.end_at > ?
	           LIMIT 1`
	now = now.UTC()
	var s model.FlashSale
	err := r.db.QueryRowContext(ctx, q, tierID, now, now).Scan(
		&s.ID, &s.Title, &s.StartAt, &s.EndAt, &s.SalePriceRef, &s.BasePriceRefSnapshot, &s.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	targets, err := r.targetsFor(ctx, []uint64{s.ID})
	if err != nil {
		return nil, err
	}
	s.TargetTierIDs = targets[s.ID]
	return &s, nil
}

// targetsFor loads the target tier sets for the given sale ids.
func (r *SaleRepo) targetsFor(ctx context.Context, saleIDs []uint64) (map[uint64][]uint64, error) {
	out := make(map[uint64][]uint64, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}
	q := `SELECT sale_id, tier_id FROM flash_sale_tiers WHERE sale_id IN (` + placeholders(len(saleIDs)) + `) ORDER BY sale_id, tier_id`
	args := make([]interface{}, len(saleIDs))
	for i, id := range saleIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var saleID, tierID uint64
		if err := rows.Scan(&saleID, &tierID); err != nil {
			return nil, err
		}
		out[saleID] = append(out[saleID], tierID)
	}
	return out, rows.Err()
}

func insertTargets(ctx context.Context, tx *sql.Tx, saleID uint64, tierIDs []uint64) error {
	if len(tierIDs) == 0 {
		return nil
	}
	query := `INSERT INTO flash_sale_tiers (sale_id, tier_id) VALUES `
	args := make([]interface{}, 0, len(tierIDs)*2)
	for i, tid := range tierIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, saleID, tid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// placeholders returns a comma-joined run of n "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
