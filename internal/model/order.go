package model

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderFailed    OrderStatus = "failed"
	OrderExpired   OrderStatus = "expired"
)

// PaymentMethodBillplz is recorded on orders paid through the gateway.
const PaymentMethodBillplz = "Billplz"

var transitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderFailed, OrderExpired},
	OrderPaid:    {OrderFulfilled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderFulfilled, OrderFailed, OrderExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Settled reports whether payment has been confirmed.
func (s OrderStatus) Settled() bool {
	return s == OrderPaid || s == OrderFulfilled
}

// Order is a customer purchase of one package in some quantity.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	PackageID     int64       `json:"package_id"`
	PackageName   string      `json:"package_name"`
	Quantity      int         `json:"quantity"`
	AecoinTotal   int64       `json:"aecoin_total"`
	Amount        int64       `json:"amount"` // sen
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	BillID        string      `json:"bill_id,omitempty"`
	BillURL       string      `json:"bill_url,omitempty"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// AmountMYR returns the order amount in ringgit.
func (o *Order) AmountMYR() float64 {
	return float64(o.Amount) / 100
}
