package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/domain/lifecycle"
	"homefix_orders/internal/usecase/interfaces"
)

const paymentStatusApproved = "approved"

// IPaymentUseCase marks invoiced orders as paid.
//
// The engine never moves money. When the customer paid through the payment
// provider, the provider payment id is checked before INVOICED -> PAID.
type IPaymentUseCase interface {
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (entities.Order, error)
}

type ConfirmPaymentCommand struct {
	OrderID           string
	ProviderPaymentID string
	Actor             entities.Actor
}

type PaymentUseCase struct {
	orders   IOrderUseCase
	verifier interfaces.IPaymentVerifier
	policy   *lifecycle.RolePolicy
	log      *zap.Logger
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(orders IOrderUseCase, verifier interfaces.IPaymentVerifier, policy *lifecycle.RolePolicy, logger *zap.Logger) *PaymentUseCase {
	if policy == nil {
		policy = lifecycle.DefaultRolePolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentUseCase{orders: orders, verifier: verifier, policy: policy, log: logger}
}

func (u *PaymentUseCase) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (entities.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	paymentID := strings.TrimSpace(cmd.ProviderPaymentID)
	if orderID == "" {
		return entities.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	order, err := u.orders.GetOrder(ctx, orderID, cmd.Actor)
	if err != nil {
		return entities.Order{}, err
	}
	if order.Status == entities.OrderStatusPaid {
		return order, nil
	}
	if order.Status != entities.OrderStatusInvoiced {
		return entities.Order{}, illegal(order, entities.OrderStatusPaid, "only invoiced orders can be paid")
	}
	if !u.policy.CanConfirmPayment(cmd.Actor.Role) {
		return entities.Order{}, illegal(order, entities.OrderStatusPaid, "role may not confirm payment")
	}

	if paymentID != "" && u.verifier != nil {
		u.log.Info("order.payment.verify", zap.String("order_id", orderID), zap.String("provider_payment_id", paymentID))
		p, err := u.verifier.GetPayment(ctx, paymentID)
		if err != nil {
			u.log.Warn("order.payment.verify.failed", zap.String("order_id", orderID), zap.Error(err))
			return entities.Order{}, err
		}
		if !strings.EqualFold(p.Status, paymentStatusApproved) {
			return entities.Order{}, fmt.Errorf("%w: payment %s is %q", ErrPaymentNotApproved, paymentID, p.Status)
		}
		if ref := strings.TrimSpace(p.ExternalReference); ref != "" && ref != orderID {
			return entities.Order{}, fmt.Errorf("%w: payment %s references %s", ErrPaymentNotApproved, paymentID, ref)
		}
	}

	reason := "payment_confirmed"
	if paymentID != "" {
		reason = "payment_confirmed:" + paymentID
	}
	paid, err := u.orders.Transition(ctx, TransitionCommand{
		OrderID: orderID,
		Target:  entities.OrderStatusPaid,
		Actor:   cmd.Actor,
		Reason:  reason,
	})
	if err != nil {
		return entities.Order{}, err
	}

	u.log.Info("order.payment.confirmed",
		zap.String("order_id", paid.ID),
		zap.String("provider_payment_id", paymentID),
		zap.String("total", paid.Invoice.Total().String()),
	)
	return paid, nil
}
