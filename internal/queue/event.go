// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPaidEvent is published when an order transitions to PAID.  It
// carries enough for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type OrderPaidEvent struct {
	OrderID     uint64          `json:"order_id"`
	OrderCode   string          `json:"order_code"`
	UserID      uint64          `json:"user_id"`
	PaymentCode string          `json:"payment_code"`
	Method      string          `json:"method"` // "manual" or "slip"
	Items       []OrderItemLine `json:"items"`
	TotalAmount string          `json:"total_amount"`
	PaidAt      string          `json:"paid_at"`
}

// OrderItemLine is one ticket line of a paid order.
type OrderItemLine struct {
	TicketType string `json:"ticket_type"`
	Quantity   uint32 `json:"quantity"`
}
