package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"
)

// Store keeps orders, accounts and services in process. It honours the same
// version contract as the database adapters.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]entities.Order
	accounts map[string]entities.Account
	services map[string]entities.Service
	clock    func() time.Time
}

var (
	_ interfaces.IOrderRepository   = (*Store)(nil)
	_ interfaces.IAccountRepository = (*Store)(nil)
	_ interfaces.IServiceRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		orders:   map[string]entities.Order{},
		accounts: map[string]entities.Account{},
		services: map[string]entities.Service{},
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) GetOrder(_ context.Context, id string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return entities.Order{}, nil
	}
	return o.Clone(), nil
}

func (s *Store) CreateOrder(_ context.Context, o entities.Order) (entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return entities.Order{}, interfaces.ErrVersionConflict
	}
	if o.Version == 0 {
		o.Version = 1
	}
	s.orders[o.ID] = o.Clone()
	return o, nil
}

func (s *Store) SaveOrder(_ context.Context, o entities.Order) (entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID]
	if !ok || stored.Version != o.Version {
		return entities.Order{}, interfaces.ErrVersionConflict
	}
	o.Version++
	s.orders[o.ID] = o.Clone()
	return o, nil
}

func (s *Store) ListOrdersForCustomer(_ context.Context, customerID string) ([]entities.Order, error) {
	return s.filter(func(o entities.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *Store) ListOrdersForProvider(_ context.Context, providerID string) ([]entities.Order, error) {
	s.mu.RLock()
	owned := map[string]bool{}
	for _, svc := range s.services {
		if svc.ProviderID == providerID {
			owned[svc.ID] = true
		}
	}
	s.mu.RUnlock()
	return s.filter(func(o entities.Order) bool { return o.ProviderID == providerID || owned[o.ServiceID] }), nil
}

func (s *Store) filter(keep func(entities.Order) bool) []entities.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []entities.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetAccount(_ context.Context, id string) (entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[id], nil
}

func (s *Store) SetBlacklisted(_ context.Context, id string, blacklisted bool) (entities.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return entities.Account{}, nil
	}
	a.IsBlacklisted = blacklisted
	if a.Kind == entities.AccountKindProvider {
		a.Status = entities.ProviderStatusActive
		if blacklisted {
			a.Status = entities.ProviderStatusBlacklisted
		}
	}
	a.UpdatedAt = s.clock()
	s.accounts[id] = a
	return a, nil
}

func (s *Store) GetByID(_ context.Context, id string) (entities.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services[id], nil
}

// PutAccount and PutService seed reference data owned by other services.
func (s *Store) PutAccount(a entities.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

func (s *Store) PutService(svc entities.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}
