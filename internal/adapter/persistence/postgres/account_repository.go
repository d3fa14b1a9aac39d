package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"
)

type AccountRepository struct {
	db    *sql.DB
	clock func() time.Time
}

var _ interfaces.IAccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, clock: time.Now}
}

func (r *AccountRepository) GetAccount(ctx context.Context, id string) (entities.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, kind, is_blacklisted, status, updated_at FROM accounts WHERE id = $1`, id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Account{}, nil
	}
	if err != nil {
		return entities.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

// SetBlacklisted writes the provider status alongside the flag; customers keep a NULL status.
func (r *AccountRepository) SetBlacklisted(ctx context.Context, id string, blacklisted bool) (entities.Account, error) {
	status := entities.ProviderStatusActive
	if blacklisted {
		status = entities.ProviderStatusBlacklisted
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET is_blacklisted = $2,
		    status = CASE WHEN kind = 'PROVIDER' THEN $3 ELSE status END,
		    updated_at = $4
		WHERE id = $1
		RETURNING id, kind, is_blacklisted, status, updated_at
	`, id, blacklisted, status, r.clock().UTC())
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Account{}, nil
	}
	if err != nil {
		return entities.Account{}, fmt.Errorf("failed to update account: %w", err)
	}
	return acct, nil
}

func scanAccount(s rowScanner) (entities.Account, error) {
	var (
		acct   entities.Account
		kind   string
		status sql.NullString
	)
	if err := s.Scan(&acct.ID, &kind, &acct.IsBlacklisted, &status, &acct.UpdatedAt); err != nil {
		return entities.Account{}, err
	}
	acct.Kind = entities.AccountKind(kind)
	acct.Status = status.String
	return acct, nil
}

type ServiceRepository struct {
	db *sql.DB
}

var _ interfaces.IServiceRepository = (*ServiceRepository)(nil)

func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (entities.Service, error) {
	var svc entities.Service
	err := r.db.QueryRowContext(ctx, `
		SELECT id, provider_id, category, name_en, name_ar, price::text
		FROM services
		WHERE id = $1
	`, id).Scan(&svc.ID, &svc.ProviderID, &svc.Category, &svc.NameEN, &svc.NameAR, &svc.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Service{}, nil
	}
	if err != nil {
		return entities.Service{}, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}
