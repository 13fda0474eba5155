package model

import "time"

// Package is an AECOIN bundle offered in the store.
type Package struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	AecoinAmount int64     `json:"aecoin_amount"`
	Price        int64     `json:"price"` // sen
	BonusLabel   string    `json:"bonus_label,omitempty"`
	Active       bool      `json:"active"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PriceMYR returns the unit price in ringgit.
func (p *Package) PriceMYR() float64 {
	return float64(p.Price) / 100
}

// RedemptionCode is an in-game code issued for a fulfilled order.
type RedemptionCode struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	AecoinAmount int64     `json:"aecoin_amount"`
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	Redeemed     bool      `json:"redeemed"`
	CreatedAt    time.Time `json:"created_at"`
}
