package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aecoin-store-api/internal/model"

	"github.com/Masterminds/squirrel"
)

var orderColumns = []string{
	"id", "user_id", "username", "email", "package_id", "package_name", "quantity", "aecoin_total",
	"amount", "status", "payment_method", "bill_id", "bill_url", "paid_at", "created_at", "updated_at",
}

// OrderFilter narrows List.
type OrderFilter struct {
	UserID string
	Status model.OrderStatus
	Limit  uint64
	Offset uint64
}

// OrderRepository stores orders. Status changes are conditional on the
// current status so concurrent gateway messages cannot apply twice.
type OrderRepository struct {
	s *Store
}

func scanOrder(row interface{ Scan(...interface{}) error }) (*model.Order, error) {
	var (
		o      model.Order
		status string
		paidAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Username, &o.Email, &o.PackageID, &o.PackageName, &o.Quantity,
		&o.AecoinTotal, &o.Amount, &status, &o.PaymentMethod, &o.BillID, &o.BillURL, &paidAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = model.OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	ts := now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = ts
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = ts

	_, err := r.s.exec(ctx, r.s.db, r.s.sb.Insert("orders").
		Columns(orderColumns...).
		Values(o.ID, o.UserID, o.Username, o.Email, o.PackageID, o.PackageName, o.Quantity, o.AecoinTotal,
			o.Amount, string(o.Status), o.PaymentMethod, o.BillID, o.BillURL, nullTime(o.PaidAt),
			o.CreatedAt, o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Get returns an order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*model.Order, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByBillID returns the order a gateway bill was created for.
func (r *OrderRepository) GetByBillID(ctx context.Context, billID string) (*model.Order, error) {
	if billID == "" {
		return nil, ErrNotFound
	}
	return r.getBy(ctx, squirrel.Eq{"bill_id": billID})
}

func (r *OrderRepository) getBy(ctx context.Context, where squirrel.Eq) (*model.Order, error) {
	row, err := r.s.queryRow(ctx, r.s.db,
		r.s.sb.Select(orderColumns...).From("orders").Where(where).Limit(1))
	if err != nil {
		return nil, err
	}

	o, err := scanOrder(row)
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

// List returns orders newest first.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	q := r.s.sb.Select(orderColumns...).From("orders").OrderBy("created_at DESC", "id DESC")
	if f.UserID != "" {
		q = q.Where(squirrel.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	rows, err := r.s.query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// SetBill records the gateway bill for a pending order.
func (r *OrderRepository) SetBill(ctx context.Context, id, billID, billURL string) error {
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Update("orders").
		Set("bill_id", billID).
		Set("bill_url", billURL).
		Set("updated_at", now()).
		Where(squirrel.Eq{"id": id, "status": string(model.OrderPending)}))
	if err != nil {
		return fmt.Errorf("failed to set bill: %w", err)
	}
	return requireOne(res)
}

// Transition moves an order from one status to another if it is still in
// from. It reports whether this call applied the change. paidAt is stored
// when moving into paid.
func (r *OrderRepository) Transition(ctx context.Context, id string, from, to model.OrderStatus, paidAt *time.Time) (bool, error) {
	return r.transition(ctx, r.s.db, id, from, to, paidAt)
}

func (r *OrderRepository) transition(ctx context.Context, run runner, id string, from, to model.OrderStatus, paidAt *time.Time) (bool, error) {
	if !model.CanTransition(from, to) {
		return false, fmt.Errorf("illegal order transition %s -> %s", from, to)
	}

	q := r.s.sb.Update("orders").
		Set("status", string(to)).
		Set("updated_at", now()).
		Where(squirrel.Eq{"id": id, "status": string(from)})
	if to == model.OrderPaid && paidAt != nil {
		q = q.Set("paid_at", paidAt.UTC())
	}

	res, err := r.s.exec(ctx, run, q)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	n, err := affected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Fulfill moves a paid order to fulfilled and stores its codes in one
// transaction. It reports false, storing nothing, if the order was not paid.
func (r *OrderRepository) Fulfill(ctx context.Context, id string, codes []model.RedemptionCode) (bool, error) {
	var applied bool
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := r.transition(ctx, tx, id, model.OrderPaid, model.OrderFulfilled, nil)
		if err != nil || !ok {
			return err
		}

		if err := r.s.Codes().insertAll(ctx, tx, codes); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ExpirePending marks pending orders created before cutoff as expired and
// returns how many were changed.
func (r *OrderRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Update("orders").
		Set("status", string(model.OrderExpired)).
		Set("updated_at", now()).
		Where(squirrel.Eq{"status": string(model.OrderPending)}).
		Where(squirrel.Lt{"created_at": cutoff.UTC()}))
	if err != nil {
		return 0, fmt.Errorf("failed to expire orders: %w", err)
	}
	return affected(res)
}

// CountByStatus returns the number of orders per status.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	rows, err := r.s.query(ctx, r.s.db,
		r.s.sb.Select("status", "COUNT(*)").From("orders").GroupBy("status"))
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.OrderStatus(status)] = n
	}
	return counts, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
