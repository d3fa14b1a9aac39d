package interfaces

import (
	"time"

	"homefix_orders/internal/domain/entities"
)

// IOrderMetrics records engine outcomes.
type IOrderMetrics interface {
	TransitionApplied(from, to entities.OrderStatus)
	TransitionRejected(to entities.OrderStatus, reason string)
	CascadeCompleted(kind entities.AccountKind, changed, skipped, failed int, elapsed time.Duration)
}
