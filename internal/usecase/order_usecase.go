package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/domain/lifecycle"
	"homefix_orders/internal/usecase/interfaces"
)

const defaultSaveAttempts = 3

var tracer = otel.Tracer("homefix_orders/internal/usecase")

// IOrderUseCase is the order lifecycle engine.
//
// Every call is serialized per order; calls on distinct orders run concurrently.
type IOrderUseCase interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (entities.Order, error)
	GetOrder(ctx context.Context, orderID string, actor entities.Actor) (entities.Order, error)
	Transition(ctx context.Context, cmd TransitionCommand) (entities.Order, error)
	Invoice(ctx context.Context, cmd InvoiceCommand) (entities.Order, error)
	ProposeFollowUp(ctx context.Context, cmd ProposeFollowUpCommand) (entities.Order, error)
	ScheduleFollowUp(ctx context.Context, cmd ScheduleFollowUpCommand) (entities.Order, error)
}

// OrderUseCaseDeps bundles collaborators required to construct the order usecase.
type OrderUseCaseDeps struct {
	Orders   interfaces.IOrderRepository
	Services interfaces.IServiceRepository
	Accounts interfaces.IAccountRepository
	Notifier interfaces.INotifier
	Metrics  interfaces.IOrderMetrics
	Registry *lifecycle.Registry
	Policy   *lifecycle.RolePolicy
	Logger   *zap.Logger
	Clock    func() time.Time
	// SaveAttempts bounds reload-and-retry on optimistic version conflicts.
	SaveAttempts int
}

type OrderUseCase struct {
	orders   interfaces.IOrderRepository
	services interfaces.IServiceRepository
	accounts interfaces.IAccountRepository
	notifier interfaces.INotifier
	metrics  interfaces.IOrderMetrics
	registry *lifecycle.Registry
	policy   *lifecycle.RolePolicy
	locks    *orderLocks
	log      *zap.Logger
	clock    func() time.Time
	attempts int
	newID    func() string
	eventID  func() string
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

func NewOrderUseCase(deps OrderUseCaseDeps) (*OrderUseCase, error) {
	if deps.Orders == nil {
		return nil, errors.New("order usecase: order repository is required")
	}

	registry := deps.Registry
	if registry == nil {
		registry = lifecycle.NewRegistry()
	}
	policy := deps.Policy
	if policy == nil {
		policy = lifecycle.DefaultRolePolicy()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	attempts := deps.SaveAttempts
	if attempts <= 0 {
		attempts = defaultSaveAttempts
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &OrderUseCase{
		orders:   deps.Orders,
		services: deps.Services,
		accounts: deps.Accounts,
		notifier: deps.Notifier,
		metrics:  metrics,
		registry: registry,
		policy:   policy,
		locks:    newOrderLocks(),
		log:      logger,
		clock: func() time.Time {
			return clock().UTC()
		},
		attempts: attempts,
		newID:    uuid.NewString,
		eventID: func() string {
			return ulid.Make().String()
		},
	}, nil
}

// PlaceOrderCommand books a service for a customer.
type PlaceOrderCommand struct {
	CustomerID    string
	ServiceID     string
	ScheduledDate time.Time
	Notes         string
	Actor         entities.Actor
}

func (u *OrderUseCase) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (entities.Order, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	serviceID := strings.TrimSpace(cmd.ServiceID)
	if customerID == "" || serviceID == "" {
		return entities.Order{}, fmt.Errorf("%w: customer_id and service_id are required", ErrInvalidInput)
	}
	if cmd.ScheduledDate.IsZero() {
		return entities.Order{}, fmt.Errorf("%w: scheduled_date is required", ErrInvalidInput)
	}
	switch cmd.Actor.Role {
	case entities.RoleAdmin:
	case entities.RoleCustomer:
		if cmd.Actor.ID != customerID {
			return entities.Order{}, fmt.Errorf("%w: customers may only book for themselves", ErrInvalidInput)
		}
	default:
		return entities.Order{}, fmt.Errorf("%w: role %q cannot place orders", ErrInvalidInput, cmd.Actor.Role)
	}
	if u.services == nil {
		return entities.Order{}, errors.New("service repository not configured")
	}

	svc, err := u.services.GetByID(ctx, serviceID)
	if err != nil {
		return entities.Order{}, err
	}
	if svc.ID == "" {
		return entities.Order{}, fmt.Errorf("%w: service %s", ErrNotFound, serviceID)
	}
	for _, accountID := range []string{customerID, svc.ProviderID} {
		if err := u.ensureNotBlacklisted(ctx, accountID); err != nil {
			return entities.Order{}, err
		}
	}

	now := u.clock()
	o := entities.Order{
		ID:            u.newID(),
		CustomerID:    customerID,
		ServiceID:     svc.ID,
		ProviderID:    svc.ProviderID,
		Status:        entities.OrderStatusPending,
		ScheduledDate: cmd.ScheduledDate.UTC(),
		Notes:         strings.TrimSpace(cmd.Notes),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := u.orders.CreateOrder(ctx, o)
	if err != nil {
		return entities.Order{}, err
	}

	u.log.Info("order.placed",
		zap.String("order_id", created.ID),
		zap.String("customer_id", created.CustomerID),
		zap.String("provider_id", created.ProviderID),
	)
	u.publish(ctx, created, "", cmd.Actor, "")
	return created, nil
}

func (u *OrderUseCase) ensureNotBlacklisted(ctx context.Context, accountID string) error {
	if u.accounts == nil || accountID == "" {
		return nil
	}
	acct, err := u.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.IsBlacklisted {
		return fmt.Errorf("%w: %s", ErrAccountBlacklisted, accountID)
	}
	return nil
}

// GetOrder returns a snapshot to the order's participants. Anyone else sees ErrNotFound.
func (u *OrderUseCase) GetOrder(ctx context.Context, orderID string, actor entities.Actor) (entities.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return entities.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	o, err := u.orders.GetOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if o.ID == "" || !isParticipant(o, actor) {
		return entities.Order{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return o, nil
}

// isParticipant reports whether the actor may act on the order at all.
// A worker of the order's provider counts while no worker is assigned.
func isParticipant(o entities.Order, actor entities.Actor) bool {
	if actor.ID == "" {
		return false
	}
	switch actor.Role {
	case entities.RoleAdmin:
		return true
	case entities.RoleCustomer:
		return o.CustomerID == actor.ID
	case entities.RoleProvider:
		return o.ProviderID == actor.ID
	case entities.RoleWorker:
		if o.WorkerID != "" {
			return o.WorkerID == actor.ID
		}
		return actor.ProviderID != "" && actor.ProviderID == o.ProviderID
	}
	return false
}

// mutation is applied to a private copy of the stored order. Returning false
// means nothing changed and nothing is written.
type mutation func(o *entities.Order) (bool, error)

// mutate runs fn under the order's lock and saves the result conditioned on
// the version it was read at. A version conflict reloads and re-evaluates fn.
func (u *OrderUseCase) mutate(ctx context.Context, orderID string, actor entities.Actor, reason string, fn mutation) (entities.Order, error) {
	unlock := u.locks.Lock(orderID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		current, err := u.orders.GetOrder(ctx, orderID)
		if err != nil {
			return entities.Order{}, err
		}
		if current.ID == "" {
			return entities.Order{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}

		working := current.Clone()
		changed, err := fn(&working)
		if err != nil {
			return entities.Order{}, err
		}
		if !changed {
			return current, nil
		}
		if !u.registry.IsRegistered(working.Status) {
			return entities.Order{}, fmt.Errorf("order %s: refusing to persist unregistered status %q", orderID, working.Status)
		}

		working.UpdatedAt = u.clock()
		saved, err := u.orders.SaveOrder(ctx, working)
		if errors.Is(err, interfaces.ErrVersionConflict) {
			u.log.Warn("order.save.conflict",
				zap.String("order_id", orderID),
				zap.Int64("version", current.Version),
				zap.Int("attempt", attempt),
			)
			if attempt < u.attempts {
				continue
			}
			return entities.Order{}, fmt.Errorf("%w: order %s", ErrConflict, orderID)
		}
		if err != nil {
			return entities.Order{}, err
		}

		if saved.Status != current.Status {
			u.metrics.TransitionApplied(current.Status, saved.Status)
			u.publish(ctx, saved, current.Status, actor, reason)
		}
		return saved, nil
	}
}

// publish hands the change to the notifier. Failures are logged, never returned.
func (u *OrderUseCase) publish(ctx context.Context, o entities.Order, prev entities.OrderStatus, actor entities.Actor, reason string) {
	if u.notifier == nil {
		return
	}
	ev := entities.StatusChanged{
		EventID:        u.eventID(),
		OrderID:        o.ID,
		PreviousStatus: prev,
		NewStatus:      o.Status,
		ActorRole:      actor.Role,
		ActorID:        actor.ID,
		Reason:         reason,
		OccurredAt:     u.clock(),
	}
	if err := u.notifier.Publish(ctx, ev); err != nil {
		u.log.Warn("order.event.publish.failed",
			zap.String("order_id", o.ID),
			zap.String("status", string(o.Status)),
			zap.Error(err),
		)
	}
}

func startSpan(ctx context.Context, name, orderID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("order.id", orderID))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type noopMetrics struct{}

func (noopMetrics) TransitionApplied(entities.OrderStatus, entities.OrderStatus) {}
func (noopMetrics) TransitionRejected(entities.OrderStatus, string) {}
func (noopMetrics) CascadeCompleted(entities.AccountKind, int, int, int, time.Duration) {}
