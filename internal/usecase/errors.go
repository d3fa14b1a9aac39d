package usecase

import (
	"errors"
	"fmt"
	"strings"

	"homefix_orders/internal/domain/entities"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrIllegalTransition     = errors.New("illegal transition")
	ErrInvoiceRequired       = errors.New("invoice required")
	ErrInvalidInvoiceItem    = errors.New("invalid invoice item")
	ErrFollowUpNotEligible   = errors.New("follow-up not eligible")
	ErrPartialCascadeFailure = errors.New("partial cascade failure")

	ErrInvalidInput           = errors.New("invalid input")
	ErrConflict               = errors.New("concurrent update conflict")
	ErrInvoiceAlreadyAttached = errors.New("invoice already attached")
	ErrAccountBlacklisted     = errors.New("account blacklisted")
	ErrPaymentNotApproved     = errors.New("payment not approved")
)

// IllegalTransitionError reports a rejected status change together with the
// status the order still has.
type IllegalTransitionError struct {
	OrderID string
	Current entities.OrderStatus
	Target  entities.OrderStatus
	Reason  string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: order %s %s -> %s: %s", ErrIllegalTransition, e.OrderID, e.Current, e.Target, e.Reason)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

func illegal(o entities.Order, target entities.OrderStatus, reason string) error {
	return &IllegalTransitionError{OrderID: o.ID, Current: o.Status, Target: target, Reason: reason}
}

// PartialCascadeFailure is returned when at least one order of a cascade was
// not mutated. The account flag outcome is reported separately in Result.
type PartialCascadeFailure struct {
	Result CascadeResult
}

func (e *PartialCascadeFailure) Error() string {
	ids := make([]string, 0, len(e.Result.Failed))
	for _, f := range e.Result.Failed {
		ids = append(ids, f.OrderID)
	}

	var b strings.Builder
	b.WriteString(ErrPartialCascadeFailure.Error())
	fmt.Fprintf(&b, ": account %s failed=%d", e.Result.AccountID, len(ids))
	if len(ids) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(ids, ","))
	}
	if n := len(e.Result.Unprocessed); n > 0 {
		fmt.Fprintf(&b, " unprocessed=%d", n)
	}
	fmt.Fprintf(&b, " flag_updated=%t", e.Result.FlagUpdated)
	return b.String()
}

func (e *PartialCascadeFailure) Is(target error) bool {
	return target == ErrPartialCascadeFailure
}

// Causes maps each failed order id to its underlying error.
func (e *PartialCascadeFailure) Causes() map[string]error {
	out := make(map[string]error, len(e.Result.Failed))
	for _, f := range e.Result.Failed {
		out[f.OrderID] = f.Err
	}
	return out
}
