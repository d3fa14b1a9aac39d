package interfaces

import (
	"context"

	"homefix_orders/internal/domain/entities"
)

// INotifier receives committed status changes. Delivery is at-most-once and
// implementations must not block the caller on a slow channel.
type INotifier interface {
	Publish(ctx context.Context, ev entities.StatusChanged) error
}
