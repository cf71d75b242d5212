// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names for rental domain events. Both queues are durable.
const (
	RentalRequestedQueue     = "rental.requested"
	RentalStatusChangedQueue = "rental.status_changed"
)

// RentalRequestedEvent is published when a customer submits a new rental.
// It carries enough detail for downstream consumers to log or notify
// without querying the primary database.
type RentalRequestedEvent struct {
	EventID     string `json:"event_id"`
	RentalID    uint64 `json:"rental_id"`
	UserID      uint64 `json:"user_id"`
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    uint32 `json:"quantity"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	TotalDays   uint32 `json:"total_days"`
	TotalPrice  string `json:"total_price"`
	RequestedAt string `json:"requested_at"`
}

// RentalStatusChangedEvent is published whenever a manager moves a rental
// through its lifecycle or changes its payment state.
type RentalStatusChangedEvent struct {
	EventID   string `json:"event_id"`
	RentalID  uint64 `json:"rental_id"`
	UserID    uint64 `json:"user_id"`
	Field     string `json:"field"` // "status" or "payment_status"
	From      string `json:"from"`
	To        string `json:"to"`
	ChangedBy uint64 `json:"changed_by"`
	ChangedAt string `json:"changed_at"`
}
