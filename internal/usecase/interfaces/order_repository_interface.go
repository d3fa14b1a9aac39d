package interfaces

import (
	"context"
	"errors"

	"homefix_orders/internal/domain/entities"
)

// ErrVersionConflict is returned by SaveOrder when the stored version no longer matches.
var ErrVersionConflict = errors.New("order version conflict")

// IOrderRepository abstracts persistence for Order.
//
// The lifecycle engine must be able to:
//   - load one order by id (zero Order, nil error when missing)
//   - create an order once (ErrVersionConflict if the id is taken)
//   - save an order conditioned on the Version it was read at; the stored copy gets Version+1
//   - list every order owned by a customer, or reached through a provider's services
type IOrderRepository interface {
	GetOrder(ctx context.Context, id string) (entities.Order, error)
	CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error)
	SaveOrder(ctx context.Context, o entities.Order) (entities.Order, error)
	ListOrdersForCustomer(ctx context.Context, customerID string) ([]entities.Order, error)
	ListOrdersForProvider(ctx context.Context, providerID string) ([]entities.Order, error)
}
