package lifecycle

import (
	"slices"

	"github.com/looplab/fsm"

	"homefix_orders/internal/domain/entities"
)

// Edge is a single directed status change.
type Edge struct {
	From entities.OrderStatus `yaml:"from"`
	To   entities.OrderStatus `yaml:"to"`
}

// actorEdges are the transitions an actor may request directly.
var actorEdges = map[entities.OrderStatus][]entities.OrderStatus{
	entities.OrderStatusPending:    {entities.OrderStatusAccepted, entities.OrderStatusDeclined, entities.OrderStatusCanceled},
	entities.OrderStatusAccepted:   {entities.OrderStatusComing, entities.OrderStatusCanceled},
	entities.OrderStatusComing:     {entities.OrderStatusInProgress, entities.OrderStatusCanceled},
	entities.OrderStatusInProgress: {entities.OrderStatusFinished, entities.OrderStatusInvoiced, entities.OrderStatusCanceled},
	entities.OrderStatusFinished:   {entities.OrderStatusInvoiced},
	entities.OrderStatusInvoiced:   {entities.OrderStatusPaid},
}

// FollowUpReentry is only taken by the follow-up workflow, never by a bare transition.
var FollowUpReentry = Edge{From: entities.OrderStatusFinished, To: entities.OrderStatusPending}

var terminalStatuses = []entities.OrderStatus{
	entities.OrderStatusPaid,
	entities.OrderStatusDeclined,
	entities.OrderStatusCanceled,
}

// Registry answers legality questions about the order lifecycle.
type Registry struct {
	events fsm.Events
}

func NewRegistry() *Registry {
	byTarget := map[entities.OrderStatus][]string{}
	for from, targets := range actorEdges {
		for _, to := range targets {
			byTarget[to] = append(byTarget[to], string(from))
		}
	}

	events := make(fsm.Events, 0, len(byTarget))
	for _, to := range entities.AllOrderStatuses {
		src, ok := byTarget[to]
		if !ok {
			continue
		}
		slices.Sort(src)
		events = append(events, fsm.EventDesc{Name: string(to), Src: src, Dst: string(to)})
	}
	return &Registry{events: events}
}

// IsRegistered reports whether s is a lifecycle state.
func (r *Registry) IsRegistered(s entities.OrderStatus) bool {
	return slices.Contains(entities.AllOrderStatuses, s)
}

// IsTerminal reports PAID, DECLINED and CANCELED.
func (r *Registry) IsTerminal(s entities.OrderStatus) bool {
	return slices.Contains(terminalStatuses, s)
}

// Allows reports whether an actor-driven transition from -> to is legal.
// The follow-up re-entry edge is not included.
func (r *Registry) Allows(from, to entities.OrderStatus) bool {
	if !r.IsRegistered(from) || !r.IsRegistered(to) {
		return false
	}
	machine := fsm.NewFSM(string(from), r.events, fsm.Callbacks{})
	return machine.Can(string(to))
}

// Targets lists the statuses reachable from s by a direct transition.
func (r *Registry) Targets(s entities.OrderStatus) []entities.OrderStatus {
	return slices.Clone(actorEdges[s])
}

// Edges lists every actor-driven edge.
func (r *Registry) Edges() []Edge {
	var out []Edge
	for _, from := range entities.AllOrderStatuses {
		for _, to := range actorEdges[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}
