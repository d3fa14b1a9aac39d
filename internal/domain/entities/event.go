package entities

import "time"

// StatusChanged is emitted to the change notifier after every committed status change.
type StatusChanged struct {
	EventID        string      `json:"event_id"`
	OrderID        string      `json:"order_id"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	NewStatus      OrderStatus `json:"new_status"`
	ActorRole      Role        `json:"actor_role,omitempty"`
	ActorID        string      `json:"actor_id,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
