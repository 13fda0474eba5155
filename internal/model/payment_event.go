package model

import "time"

// Payment event sources.
const (
	EventSourceCallback = "callback"
	EventSourceRedirect = "redirect"
)

// PaymentEvent is the audit record of one inbound gateway message.
type PaymentEvent struct {
	BillID     string            `json:"bill_id" bson:"bill_id"`
	OrderID    string            `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Source     string            `json:"source" bson:"source"`
	Outcome    string            `json:"outcome" bson:"outcome"`
	Paid       bool              `json:"paid" bson:"paid"`
	Fields     map[string]string `json:"fields" bson:"fields"`
	Error      string            `json:"error,omitempty" bson:"error,omitempty"`
	ReceivedAt time.Time         `json:"received_at" bson:"received_at"`
}
