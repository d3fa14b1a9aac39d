package usecase

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/domain/lifecycle"
)

// TransitionCommand requests a single status change.
//
// WorkerID optionally assigns a worker when accepting. Moving to INVOICED
// requires an invoice for the current booking cycle; only the blacklist
// cascade may close billing without one.
type TransitionCommand struct {
	OrderID  string
	Target   entities.OrderStatus
	Actor    entities.Actor
	WorkerID string
	Reason   string

	// waiveInvoice is set by the cascade and honored for admins only.
	waiveInvoice bool
}

func (u *OrderUseCase) Transition(ctx context.Context, cmd TransitionCommand) (_ entities.Order, err error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	ctx, span := startSpan(ctx, "order.transition", orderID,
		attribute.String("order.target", string(cmd.Target)),
		attribute.String("actor.role", string(cmd.Actor.Role)),
	)
	defer func() { endSpan(span, err) }()

	if orderID == "" {
		return entities.Order{}, illegal(entities.Order{}, cmd.Target, "order id is required")
	}

	updated, err := u.mutate(ctx, orderID, cmd.Actor, cmd.Reason, func(o *entities.Order) (bool, error) {
		return u.applyTransition(o, cmd)
	})
	if err != nil {
		u.log.Info("order.transition.rejected",
			zap.String("order_id", orderID),
			zap.String("to", string(cmd.Target)),
			zap.String("actor_role", string(cmd.Actor.Role)),
			zap.Error(err),
		)
		u.metrics.TransitionRejected(cmd.Target, rejectionReason(err))
		return entities.Order{}, err
	}
	return updated, nil
}

// applyTransition validates and applies cmd to o. The checks run in order:
// participant, idempotent no-op, edge legality, role, invoice presence.
func (u *OrderUseCase) applyTransition(o *entities.Order, cmd TransitionCommand) (bool, error) {
	target := cmd.Target
	if !isParticipant(*o, cmd.Actor) {
		return false, illegal(*o, target, "actor is not a participant of this order")
	}
	if o.Status == target {
		return false, nil
	}
	if !u.registry.Allows(o.Status, target) {
		return false, illegal(*o, target, "edge is not in the lifecycle")
	}
	if !u.policy.CanTransition(lifecycle.Edge{From: o.Status, To: target}, cmd.Actor.Role) {
		return false, illegal(*o, target, "role "+string(cmd.Actor.Role)+" may not originate this edge")
	}

	switch target {
	case entities.OrderStatusInvoiced:
		waived := cmd.waiveInvoice && cmd.Actor.Role == entities.RoleAdmin
		if o.Invoice == nil && !waived {
			return false, ErrInvoiceRequired
		}
	case entities.OrderStatusAccepted:
		switch {
		case cmd.Actor.Role == entities.RoleWorker:
			o.WorkerID = cmd.Actor.ID
		case strings.TrimSpace(cmd.WorkerID) != "":
			o.WorkerID = strings.TrimSpace(cmd.WorkerID)
		}
	}

	o.Status = target
	return true, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrInvoiceRequired):
		return "invoice_required"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}
