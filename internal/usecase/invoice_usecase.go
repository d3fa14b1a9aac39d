package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/domain/lifecycle"
)

type InvoiceMode string

const (
	// InvoiceModeCreate attaches the first invoice of an order.
	InvoiceModeCreate InvoiceMode = "CREATE"
	// InvoiceModeReplace swaps the attached invoice, used when a follow-up cycle is billed.
	InvoiceModeReplace InvoiceMode = "REPLACE"
)

func ParseInvoiceMode(raw string) (InvoiceMode, bool) {
	switch InvoiceMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case InvoiceModeCreate:
		return InvoiceModeCreate, true
	case InvoiceModeReplace:
		return InvoiceModeReplace, true
	}
	return "", false
}

// InvoiceCommand attaches a line-itemized invoice. Finalize also moves the
// order to INVOICED under the same lock.
type InvoiceCommand struct {
	OrderID  string
	Items    []entities.InvoiceLineItem
	Mode     InvoiceMode
	Actor    entities.Actor
	Finalize bool
}

var invoiceableStatuses = map[InvoiceMode][]entities.OrderStatus{
	InvoiceModeCreate:  {entities.OrderStatusInProgress, entities.OrderStatusFinished},
	InvoiceModeReplace: {entities.OrderStatusInProgress, entities.OrderStatusFinished, entities.OrderStatusInvoiced},
}

func (u *OrderUseCase) Invoice(ctx context.Context, cmd InvoiceCommand) (_ entities.Order, err error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	ctx, span := startSpan(ctx, "order.invoice", orderID,
		attribute.String("invoice.mode", string(cmd.Mode)),
		attribute.Int("invoice.items", len(cmd.Items)),
	)
	defer func() { endSpan(span, err) }()

	if orderID == "" {
		return entities.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	allowed, ok := invoiceableStatuses[cmd.Mode]
	if !ok {
		return entities.Order{}, fmt.Errorf("%w: unknown invoice mode %q", ErrInvalidInput, cmd.Mode)
	}
	items, err := normalizeInvoiceItems(cmd.Items)
	if err != nil {
		return entities.Order{}, err
	}

	updated, err := u.mutate(ctx, orderID, cmd.Actor, "invoice", func(o *entities.Order) (bool, error) {
		if !isParticipant(*o, cmd.Actor) || !u.policy.CanInvoice(cmd.Actor.Role) {
			return false, illegal(*o, entities.OrderStatusInvoiced, "actor may not invoice this order")
		}
		if !slices.Contains(allowed, o.Status) {
			return false, illegal(*o, entities.OrderStatusInvoiced, fmt.Sprintf("%s invoicing is not allowed in %s", cmd.Mode, o.Status))
		}
		if cmd.Mode == InvoiceModeCreate && o.Invoice != nil {
			return false, fmt.Errorf("%w: order %s", ErrInvoiceAlreadyAttached, o.ID)
		}

		o.Invoice = &entities.Invoice{CreatedAt: u.clock(), Items: items}

		if cmd.Finalize && o.Status != entities.OrderStatusInvoiced {
			edge := lifecycle.Edge{From: o.Status, To: entities.OrderStatusInvoiced}
			if !u.registry.Allows(edge.From, edge.To) || !u.policy.CanTransition(edge, cmd.Actor.Role) {
				return false, illegal(*o, entities.OrderStatusInvoiced, "role may not finalize the invoice")
			}
			o.Status = entities.OrderStatusInvoiced
		}
		return true, nil
	})
	if err != nil {
		u.log.Info("order.invoice.rejected",
			zap.String("order_id", orderID),
			zap.String("mode", string(cmd.Mode)),
			zap.Error(err),
		)
		return entities.Order{}, err
	}

	u.log.Info("order.invoice.attached",
		zap.String("order_id", updated.ID),
		zap.String("mode", string(cmd.Mode)),
		zap.Int("items", len(items)),
		zap.String("total", updated.Invoice.Total().String()),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// normalizeInvoiceItems validates the whole set before anything is attached.
func normalizeInvoiceItems(items []entities.InvoiceLineItem) ([]entities.InvoiceLineItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInvoiceItem)
	}
	out := make([]entities.InvoiceLineItem, 0, len(items))
	for i, it := range items {
		it.NameEN = strings.TrimSpace(it.NameEN)
		it.NameAR = strings.TrimSpace(it.NameAR)
		it.Price = strings.TrimSpace(it.Price)
		if it.NameEN == "" && it.NameAR == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidInvoiceItem, i)
		}
		if _, err := parsePrice(it.Price); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidInvoiceItem, i, err)
		}
		out = append(out, it)
	}
	return out, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q is not a number", raw)
	}
	if p.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %q is negative", raw)
	}
	return p, nil
}
