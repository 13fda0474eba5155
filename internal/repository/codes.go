package repository

import (
	"context"
	"fmt"

	"aecoin-store-api/internal/model"

	"github.com/Masterminds/squirrel"
)

// CodeRepository stores redemption codes.
type CodeRepository struct {
	s *Store
}

func (r *CodeRepository) insertAll(ctx context.Context, run runner, codes []model.RedemptionCode) error {
	if len(codes) == 0 {
		return nil
	}

	ts := now()
	q := r.s.sb.Insert("redemption_codes").
		Columns("code", "aecoin_amount", "order_id", "user_id", "redeemed", "created_at")
	for _, c := range codes {
		q = q.Values(c.Code, c.AecoinAmount, c.OrderID, c.UserID, c.Redeemed, ts)
	}

	if _, err := r.s.exec(ctx, run, q); err != nil {
		return fmt.Errorf("failed to insert redemption codes: %w", err)
	}
	return nil
}

// ListByOrder returns the codes issued for an order.
func (r *CodeRepository) ListByOrder(ctx context.Context, orderID string) ([]model.RedemptionCode, error) {
	rows, err := r.s.query(ctx, r.s.db, r.s.sb.
		Select("id", "code", "aecoin_amount", "order_id", "user_id", "redeemed", "created_at").
		From("redemption_codes").
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id ASC"))
	if err != nil {
		return nil, fmt.Errorf("failed to list redemption codes: %w", err)
	}
	defer rows.Close()

	codes := []model.RedemptionCode{}
	for rows.Next() {
		var c model.RedemptionCode
		if err := rows.Scan(&c.ID, &c.Code, &c.AecoinAmount, &c.OrderID, &c.UserID, &c.Redeemed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan redemption code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
