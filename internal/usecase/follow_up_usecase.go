package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/domain/lifecycle"
)

// ProposeFollowUpCommand attaches a secondary service offer to a finished order.
type ProposeFollowUpCommand struct {
	OrderID string
	Service entities.FollowUpService
	Actor   entities.Actor
}

// ScheduleFollowUpCommand accepts a proposed follow-up and re-enters the lifecycle at PENDING.
type ScheduleFollowUpCommand struct {
	OrderID string
	Date    time.Time
	Notes   string
	Actor   entities.Actor
}

func (u *OrderUseCase) ProposeFollowUp(ctx context.Context, cmd ProposeFollowUpCommand) (_ entities.Order, err error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	ctx, span := startSpan(ctx, "order.follow_up.propose", orderID)
	defer func() { endSpan(span, err) }()

	if orderID == "" {
		return entities.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	svc, err := normalizeFollowUpService(cmd.Service)
	if err != nil {
		return entities.Order{}, err
	}

	updated, err := u.mutate(ctx, orderID, cmd.Actor, "follow_up_proposed", func(o *entities.Order) (bool, error) {
		if !isParticipant(*o, cmd.Actor) || !u.policy.CanProposeFollowUp(cmd.Actor.Role) {
			return false, illegal(*o, o.Status, "actor may not propose a follow-up")
		}
		if o.Status != entities.OrderStatusFinished {
			return false, fmt.Errorf("%w: order %s is %s", ErrFollowUpNotEligible, o.ID, o.Status)
		}
		o.FollowUpService = &svc
		return true, nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	u.log.Info("order.follow_up.proposed",
		zap.String("order_id", updated.ID),
		zap.String("category", svc.Category),
		zap.String("price", svc.Price),
	)
	return updated, nil
}

func (u *OrderUseCase) ScheduleFollowUp(ctx context.Context, cmd ScheduleFollowUpCommand) (_ entities.Order, err error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	ctx, span := startSpan(ctx, "order.follow_up.schedule", orderID)
	defer func() { endSpan(span, err) }()

	if orderID == "" {
		return entities.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	if cmd.Date.IsZero() {
		return entities.Order{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	updated, err := u.mutate(ctx, orderID, cmd.Actor, "follow_up_scheduled", func(o *entities.Order) (bool, error) {
		if !isParticipant(*o, cmd.Actor) {
			return false, illegal(*o, entities.OrderStatusPending, "actor is not a participant of this order")
		}
		if o.Status != entities.OrderStatusFinished || !o.FollowUpService.Schedulable() {
			return false, fmt.Errorf("%w: order %s is %s, open follow-up proposal=%t", ErrFollowUpNotEligible, o.ID, o.Status, o.FollowUpService.Schedulable())
		}
		if !u.policy.CanTransition(lifecycle.FollowUpReentry, cmd.Actor.Role) {
			return false, illegal(*o, entities.OrderStatusPending, "role may not schedule a follow-up")
		}

		now := u.clock()
		o.FollowUpService.ScheduledAt = &now
		// The new cycle is billed on its own invoice.
		if o.Invoice != nil {
			o.PreviousInvoice = o.Invoice
			o.Invoice = nil
		}
		o.ScheduledDate = cmd.Date.UTC()
		o.Notes = strings.TrimSpace(cmd.Notes)
		o.WorkerID = ""
		o.Status = entities.OrderStatusPending
		return true, nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	u.log.Info("order.follow_up.scheduled",
		zap.String("order_id", updated.ID),
		zap.Time("scheduled_date", updated.ScheduledDate),
	)
	return updated, nil
}

func normalizeFollowUpService(s entities.FollowUpService) (entities.FollowUpService, error) {
	s.Category = strings.TrimSpace(s.Category)
	s.NameEN = strings.TrimSpace(s.NameEN)
	s.NameAR = strings.TrimSpace(s.NameAR)
	s.DescriptionEN = strings.TrimSpace(s.DescriptionEN)
	s.DescriptionAR = strings.TrimSpace(s.DescriptionAR)
	s.Price = strings.TrimSpace(s.Price)
	s.ScheduledAt = nil

	if s.Category == "" {
		return s, fmt.Errorf("%w: follow-up category is required", ErrInvalidInput)
	}
	if s.NameEN == "" && s.NameAR == "" {
		return s, fmt.Errorf("%w: follow-up name is required", ErrInvalidInput)
	}
	if _, err := parsePrice(s.Price); err != nil {
		return s, fmt.Errorf("%w: follow-up %v", ErrInvalidInput, err)
	}
	return s, nil
}
