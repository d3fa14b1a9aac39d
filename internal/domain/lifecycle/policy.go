package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"homefix_orders/internal/domain/entities"
)

var ErrInvalidPolicy = errors.New("invalid role policy")

// RolePolicy decides which roles may originate each edge and the non-transition operations.
// Admins are always permitted.
type RolePolicy struct {
	edges            map[Edge][]entities.Role
	invoicers        []entities.Role
	followUpProposer []entities.Role
	followUpSchedule []entities.Role
	payers           []entities.Role
}

type policyFile struct {
	Edges []struct {
		From  string          `yaml:"from"`
		To    string          `yaml:"to"`
		Roles []entities.Role `yaml:"roles"`
	} `yaml:"edges"`
	InvoiceRoles          []entities.Role `yaml:"invoice_roles"`
	FollowUpProposeRoles  []entities.Role `yaml:"follow_up_propose_roles"`
	FollowUpScheduleRoles []entities.Role `yaml:"follow_up_schedule_roles"`
	PaymentRoles          []entities.Role `yaml:"payment_roles"`
}

var (
	workerSide = []entities.Role{entities.RoleProvider, entities.RoleWorker}
	anyParty   = []entities.Role{entities.RoleCustomer, entities.RoleProvider, entities.RoleWorker}
)

// DefaultRolePolicy is the stock mapping shipped with the service.
func DefaultRolePolicy() *RolePolicy {
	p := &RolePolicy{
		edges:            map[Edge][]entities.Role{},
		invoicers:        workerSide,
		followUpProposer: workerSide,
		followUpSchedule: []entities.Role{entities.RoleCustomer},
		payers:           anyParty,
	}
	for _, e := range NewRegistry().Edges() {
		switch {
		case e.To == entities.OrderStatusCanceled && e.From != entities.OrderStatusInProgress:
			p.edges[e] = anyParty
		case e.To == entities.OrderStatusPaid:
			p.edges[e] = anyParty
		default:
			p.edges[e] = workerSide
		}
	}
	p.edges[FollowUpReentry] = p.followUpSchedule
	return p
}

// LoadRolePolicyYAML applies overrides from a YAML document on top of the default policy.
func LoadRolePolicyYAML(data []byte, registry *Registry) (*RolePolicy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	p := DefaultRolePolicy()
	for _, raw := range f.Edges {
		from, ok1 := entities.ParseOrderStatus(raw.From)
		to, ok2 := entities.ParseOrderStatus(raw.To)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: unknown status in edge %s -> %s", ErrInvalidPolicy, raw.From, raw.To)
		}
		e := Edge{From: from, To: to}
		if e != FollowUpReentry && !registry.Allows(from, to) {
			return nil, fmt.Errorf("%w: %s -> %s is not a legal edge", ErrInvalidPolicy, from, to)
		}
		if err := validateRoles(raw.Roles); err != nil {
			return nil, err
		}
		p.edges[e] = raw.Roles
	}
	if f.InvoiceRoles != nil {
		if err := validateRoles(f.InvoiceRoles); err != nil {
			return nil, err
		}
		p.invoicers = f.InvoiceRoles
	}
	if f.FollowUpProposeRoles != nil {
		if err := validateRoles(f.FollowUpProposeRoles); err != nil {
			return nil, err
		}
		p.followUpProposer = f.FollowUpProposeRoles
	}
	if f.FollowUpScheduleRoles != nil {
		if err := validateRoles(f.FollowUpScheduleRoles); err != nil {
			return nil, err
		}
		p.followUpSchedule = f.FollowUpScheduleRoles
		p.edges[FollowUpReentry] = f.FollowUpScheduleRoles
	}
	if f.PaymentRoles != nil {
		if err := validateRoles(f.PaymentRoles); err != nil {
			return nil, err
		}
		p.payers = f.PaymentRoles
	}

	// A customer may never accept or decline their own request.
	for _, to := range []entities.OrderStatus{entities.OrderStatusAccepted, entities.OrderStatusDeclined} {
		if slices.Contains(p.edges[Edge{From: entities.OrderStatusPending, To: to}], entities.RoleCustomer) {
			return nil, fmt.Errorf("%w: customers cannot originate PENDING -> %s", ErrInvalidPolicy, to)
		}
	}
	return p, nil
}

func validateRoles(roles []entities.Role) error {
	for _, r := range roles {
		if !r.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidPolicy, r)
		}
	}
	return nil
}

func (p *RolePolicy) CanTransition(e Edge, role entities.Role) bool {
	return role == entities.RoleAdmin || slices.Contains(p.edges[e], role)
}

func (p *RolePolicy) CanInvoice(role entities.Role) bool {
	return role == entities.RoleAdmin || slices.Contains(p.invoicers, role)
}

func (p *RolePolicy) CanProposeFollowUp(role entities.Role) bool {
	return role == entities.RoleAdmin || slices.Contains(p.followUpProposer, role)
}

func (p *RolePolicy) CanScheduleFollowUp(role entities.Role) bool {
	return p.CanTransition(FollowUpReentry, role)
}

func (p *RolePolicy) CanConfirmPayment(role entities.Role) bool {
	return role == entities.RoleAdmin || slices.Contains(p.payers, role)
}
