package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/arenatix/ticketing/internal/model"
)

// OrderRepo persists orders and their ticket items. An order is written
// once at issuance and is immutable afterwards except for RedeemTicket's
// single used-flag flip, which is the only mutation path for tickets in
// the whole system.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo given a DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order and all of its ticket items in one transaction.
// The orders table carries a unique index on session_id; a collision maps
// to ErrDuplicateSession so the issuer can fall back to returning the
// already-issued order instead of minting duplicates.
func (r *OrderRepo) Create(ctx context.Context, o model.Order) error {
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

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (order_id, session_id, event_id, customer_name, customer_email, total_amount, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.SessionID, o.EventID, o.CustomerName, o.CustomerEmail, o.TotalAmount, o.Currency, o.CreatedAt.UTC(),
	)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == 1062 {
			return ErrDuplicateSession
		}
		return err
	}

	if len(o.Items) > 0 {
		query := `INSERT INTO ticket_items (order_id, ticket_number, tier_id, tier_name, price_paid_ref, flash_sale_id, used) VALUES `
		args := make([]interface{}, 0, len(o.Items)*7)
		for i, it := range o.Items {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?, 0)"
			args = append(args, o.OrderID, it.TicketNumber, it.TierID, it.TierName, it.PricePaidRef, it.FlashSaleID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByOrderID returns the order and its items, or ErrOrderNotFound.
func (r *OrderRepo) GetByOrderID(ctx context.Context, orderID string) (model.Order, error) {
	return r.get(ctx, `order_id`, orderID)
}

// GetBySessionID returns the order issued for a payment session, or
// ErrOrderNotFound. This is the issuer's idempotency lookup.
func (r *OrderRepo) GetBySessionID(ctx context.Context, sessionID string) (model.Order, error) {
	return r.get(ctx, `session_id`, sessionID)
}

func (r *OrderRepo) get(ctx context.Context, col, key string) (model.Order, error) {
	// col is one of the two constants above, never caller input.
	q := `SELECT order_id, session_id, event_id, customer_name, customer_email, total_amount, currency, created_at
	      FROM orders WHERE ` + col + ` = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, key).Scan(
		&o.OrderID, &o.SessionID, &o.EventID, &o.CustomerName, &o.CustomerEmail, &o.TotalAmount, &o.Currency, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, err
	}

	const itemsQ = `SELECT ticket_number, tier_id, tier_name, price_paid_ref, flash_sale_id, used, used_at
	                FROM ticket_items WHERE order_id = ? ORDER BY ticket_number`
	rows, err := r.db.QueryContext(ctx, itemsQ, o.OrderID)
	if err != nil {
		return model.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.TicketItem
		var usedAt sql.NullTime
		if err := rows.Scan(&it.TicketNumber, &it.TierID, &it.TierName, &it.PricePaidRef, &it.FlashSaleID, &it.Used, &usedAt); err != nil {
			return model.Order{}, err
		}
		if usedAt.Valid {
			t := usedAt.Time
			it.UsedAt = &t
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// RedeemTicket attempts the unused -> used transition for one ticket as a
// single conditional UPDATE. Among any number of concurrent attempts for
// the same ticket, exactly one statement matches the used = 0 row; every
// other caller's update affects zero rows and is classified as
// ErrTicketAlreadyUsed (or ErrTicketNotFound if the pair never existed).
// There is no reverse transition.
func (r *OrderRepo) RedeemTicket(ctx context.Context, orderID string, ticketNumber int, now time.Time) error {
	const q = `UPDATE ticket_items SET used = 1, used_at = ?
	           WHERE order_id = ? AND ticket_number = ? AND used = 0`
	res, err := r.db.ExecContext(ctx, q, now.UTC(), orderID, ticketNumber)
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
	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM ticket_items WHERE order_id = ? AND ticket_number = ?`,
		orderID, ticketNumber,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrTicketNotFound
	}
	if err != nil {
		return err
	}
	return ErrTicketAlreadyUsed
}
