package entities

import "time"

// AccountKind distinguishes the two account types a blacklist can target.
type AccountKind string

const (
	AccountKindCustomer AccountKind = "CUSTOMER"
	AccountKindProvider AccountKind = "PROVIDER"
)

const (
	ProviderStatusActive      = "active"
	ProviderStatusBlacklisted = "blacklisted"
)

// Account is the minimal customer/provider record the engine reads and flags.
//
// Storage model (DynamoDB):
//   - PK: id
//   - attribute kind (CUSTOMER | PROVIDER)
//
// Status is only maintained for providers.
type Account struct {
	ID            string      `json:"id"`
	Kind          AccountKind `json:"kind"`
	IsBlacklisted bool        `json:"is_blacklisted"`
	Status        string      `json:"status,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Service is a provider's bookable offering; orders resolve their provider through it.
type Service struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	Category   string `json:"category"`
	NameEN     string `json:"name_en"`
	NameAR     string `json:"name_ar"`
	Price      string `json:"price"`
}

func (k AccountKind) Valid() bool {
	return k == AccountKindCustomer || k == AccountKindProvider
}
