package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"
)

const (
	defaultCascadeConcurrency = 8
	defaultCascadeTimeout     = 30 * time.Second
	cascadeReason             = "account_blacklisted"
)

// ITransitioner is the single-order executor the cascade drives.
type ITransitioner interface {
	Transition(ctx context.Context, cmd TransitionCommand) (entities.Order, error)
}

// IBlacklistCascadeUseCase applies a blacklist decision to an account and its orders.
type IBlacklistCascadeUseCase interface {
	Cascade(ctx context.Context, cmd CascadeCommand) (CascadeResult, error)
}

type CascadeCommand struct {
	AccountID   string
	Kind        entities.AccountKind
	Blacklisted bool
	Actor       entities.Actor
}

type CascadeChange struct {
	OrderID string               `json:"order_id"`
	From    entities.OrderStatus `json:"from"`
	To      entities.OrderStatus `json:"to"`
}

type CascadeFailure struct {
	OrderID string `json:"order_id"`
	Cause   string `json:"cause"`
	Err     error  `json:"-"`
}

// CascadeResult lists what happened to every resolved order. Unprocessed
// holds orders not attempted before the batch deadline.
type CascadeResult struct {
	AccountID   string               `json:"account_id"`
	Kind        entities.AccountKind `json:"kind"`
	Blacklisted bool                 `json:"blacklisted"`
	Changed     []CascadeChange      `json:"changed"`
	Skipped     []string             `json:"skipped"`
	Failed      []CascadeFailure     `json:"failed"`
	Unprocessed []string             `json:"unprocessed"`
	FlagUpdated bool                 `json:"flag_updated"`
	FlagError   string               `json:"flag_error,omitempty"`
}

type CascadeOptions struct {
	Concurrency int
	Timeout     time.Duration
}

type BlacklistCascadeUseCase struct {
	orders      interfaces.IOrderRepository
	accounts    interfaces.IAccountRepository
	transitions ITransitioner
	metrics     interfaces.IOrderMetrics
	log         *zap.Logger
	concurrency int
	timeout     time.Duration
}

var _ IBlacklistCascadeUseCase = (*BlacklistCascadeUseCase)(nil)

func NewBlacklistCascadeUseCase(orders interfaces.IOrderRepository, accounts interfaces.IAccountRepository, transitions ITransitioner, metrics interfaces.IOrderMetrics, logger *zap.Logger, opts CascadeOptions) *BlacklistCascadeUseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultCascadeConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultCascadeTimeout
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlacklistCascadeUseCase{
		orders:      orders,
		accounts:    accounts,
		transitions: transitions,
		metrics:     metrics,
		log:         logger,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
	}
}

// cascadeTarget maps a current status to the status a blacklist forces.
// ok is false when the order is left untouched.
func cascadeTarget(s entities.OrderStatus) (entities.OrderStatus, bool) {
	switch s {
	case entities.OrderStatusInvoiced, entities.OrderStatusPaid, entities.OrderStatusDeclined, entities.OrderStatusCanceled:
		return "", false
	case entities.OrderStatusFinished:
		return entities.OrderStatusInvoiced, true
	case entities.OrderStatusPending, entities.OrderStatusAccepted, entities.OrderStatusComing, entities.OrderStatusInProgress:
		return entities.OrderStatusCanceled, true
	}
	return "", false
}

func (u *BlacklistCascadeUseCase) Cascade(ctx context.Context, cmd CascadeCommand) (_ CascadeResult, err error) {
	accountID := strings.TrimSpace(cmd.AccountID)
	ctx, span := tracer.Start(ctx, "account.blacklist.cascade")
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.String("account.kind", string(cmd.Kind)),
		attribute.Bool("account.blacklisted", cmd.Blacklisted),
	)
	defer func() { endSpan(span, err) }()

	result := CascadeResult{AccountID: accountID, Kind: cmd.Kind, Blacklisted: cmd.Blacklisted}
	if accountID == "" || !cmd.Kind.Valid() {
		return result, fmt.Errorf("%w: account id and kind are required", ErrInvalidInput)
	}
	if cmd.Actor.Role != entities.RoleAdmin {
		return result, fmt.Errorf("%w: blacklisting requires an admin", ErrInvalidInput)
	}
	if u.accounts == nil {
		return result, errors.New("account repository not configured")
	}

	acct, err := u.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return result, err
	}
	if acct.ID == "" {
		return result, fmt.Errorf("%w: account %s", ErrNotFound, accountID)
	}
	if acct.Kind != cmd.Kind {
		return result, fmt.Errorf("%w: account %s is %s, not %s", ErrInvalidInput, accountID, acct.Kind, cmd.Kind)
	}

	started := time.Now()
	var listErr error
	if cmd.Blacklisted {
		orders, err := u.resolveOrders(ctx, acct)
		if err != nil {
			listErr = err
		} else {
			u.run(ctx, cmd.Actor, orders, &result)
		}
	}

	// The flag is written whatever happened to the orders. Repositories
	// report a vanished account as a zero value.
	written, flagErr := u.accounts.SetBlacklisted(ctx, accountID, cmd.Blacklisted)
	if flagErr == nil && written.ID == "" {
		flagErr = fmt.Errorf("%w: account %s", ErrNotFound, accountID)
	}
	if flagErr != nil {
		result.FlagError = flagErr.Error()
		u.log.Error("account.blacklist.flag.failed", zap.String("account_id", accountID), zap.Error(flagErr))
	} else {
		result.FlagUpdated = true
	}

	elapsed := time.Since(started)
	u.metrics.CascadeCompleted(cmd.Kind, len(result.Changed), len(result.Skipped), len(result.Failed)+len(result.Unprocessed), elapsed)
	u.log.Info("order.cascade.completed",
		zap.String("account_id", accountID),
		zap.String("kind", string(cmd.Kind)),
		zap.Bool("blacklisted", cmd.Blacklisted),
		zap.Int("changed", len(result.Changed)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("unprocessed", len(result.Unprocessed)),
		zap.Bool("flag_updated", result.FlagUpdated),
		zap.Duration("elapsed", elapsed),
	)

	switch {
	case listErr != nil:
		return result, fmt.Errorf("resolve orders for %s: %w", accountID, listErr)
	case len(result.Failed) > 0 || len(result.Unprocessed) > 0:
		return result, &PartialCascadeFailure{Result: result}
	case !result.FlagUpdated:
		return result, fmt.Errorf("set blacklist flag for %s: %w", accountID, flagErr)
	}
	return result, nil
}

// resolveOrders returns the account's orders once each, sorted by id.
func (u *BlacklistCascadeUseCase) resolveOrders(ctx context.Context, acct entities.Account) ([]entities.Order, error) {
	var (
		list []entities.Order
		err  error
	)
	switch acct.Kind {
	case entities.AccountKindCustomer:
		list, err = u.orders.ListOrdersForCustomer(ctx, acct.ID)
	case entities.AccountKindProvider:
		list, err = u.orders.ListOrdersForProvider(ctx, acct.ID)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]entities.Order, 0, len(list))
	for _, o := range list {
		if _, dup := seen[o.ID]; dup || o.ID == "" {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (u *BlacklistCascadeUseCase) run(ctx context.Context, actor entities.Actor, orders []entities.Order, result *CascadeResult) {
	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(cctx)
	g.SetLimit(u.concurrency)

	for _, o := range orders {
		if gctx.Err() != nil {
			mu.Lock()
			result.Unprocessed = append(result.Unprocessed, o.ID)
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				mu.Lock()
				result.Unprocessed = append(result.Unprocessed, o.ID)
				mu.Unlock()
				return nil
			}
			change, skipped, err := u.cascadeOne(gctx, actor, o)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed = append(result.Failed, CascadeFailure{OrderID: o.ID, Cause: err.Error(), Err: err})
			case skipped:
				result.Skipped = append(result.Skipped, o.ID)
			default:
				result.Changed = append(result.Changed, change)
			}
			// Per-order failures never cancel the batch.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Changed, func(i, j int) bool { return result.Changed[i].OrderID < result.Changed[j].OrderID })
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].OrderID < result.Failed[j].OrderID })
	sort.Strings(result.Skipped)
	sort.Strings(result.Unprocessed)
}

// cascadeOne re-maps once if the order moved between listing and locking.
func (u *BlacklistCascadeUseCase) cascadeOne(ctx context.Context, actor entities.Actor, o entities.Order) (CascadeChange, bool, error) {
	status := o.Status
	for attempt := 0; attempt < 2; attempt++ {
		target, ok := cascadeTarget(status)
		if !ok {
			return CascadeChange{}, true, nil
		}
		_, err := u.transitions.Transition(ctx, TransitionCommand{
			OrderID:      o.ID,
			Target:       target,
			Actor:        actor,
			Reason:       cascadeReason,
			waiveInvoice: true,
		})
		var ite *IllegalTransitionError
		if errors.As(err, &ite) && ite.Current != status {
			status = ite.Current
			continue
		}
		if err != nil {
			return CascadeChange{}, false, err
		}
		return CascadeChange{OrderID: o.ID, From: status, To: target}, false, nil
	}
	return CascadeChange{}, false, fmt.Errorf("%w: order %s kept moving during cascade", ErrConflict, o.ID)
}
