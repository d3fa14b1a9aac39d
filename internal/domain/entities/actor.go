package entities

// Role identifies which side of the marketplace an actor acts for.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller, supplied by the identity collaborator.
//
// ID is the entity the actor owns (customer id, provider id or worker id).
// ProviderID is only meaningful for workers and names their employing provider.
type Actor struct {
	Role       Role   `json:"role"`
	ID         string `json:"id"`
	ProviderID string `json:"provider_id,omitempty"`
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// SystemActor is used for engine-originated mutations such as the blacklist cascade.
func SystemActor(adminID string) Actor {
	return Actor{Role: RoleAdmin, ID: adminID}
}
