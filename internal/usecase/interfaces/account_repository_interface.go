package interfaces

import (
	"context"

	"homefix_orders/internal/domain/entities"
)

// IAccountRepository reads accounts and writes the blacklist flag.
// Both methods return a zero Account with a nil error when the id is unknown.
type IAccountRepository interface {
	GetAccount(ctx context.Context, id string) (entities.Account, error)
	SetBlacklisted(ctx context.Context, id string, blacklisted bool) (entities.Account, error)
}

// IServiceRepository resolves a service to its provider.
type IServiceRepository interface {
	GetByID(ctx context.Context, id string) (entities.Service, error)
}
