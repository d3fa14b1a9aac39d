package handlers

import (
	"errors"
	"net/http"

	"homefix_orders/internal/adapter/http/middleware"
	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase"
	"homefix_orders/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request payload", http.StatusBadRequest)
	errUnauthorized   = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing caller identity", http.StatusUnauthorized)
)

type illegalTransitionDetails struct {
	OrderID string `json:"order_id"`
	Current string `json:"current_status"`
	Target  string `json:"target_status"`
	Reason  string `json:"reason"`
}

// writeError maps a usecase error to its HTTP status and body.
func writeError(c *gin.Context, err error) {
	var illegalErr *usecase.IllegalTransitionError
	if errors.As(err, &illegalErr) {
		appErr := pkg.NewDomainError("ILLEGAL_TRANSITION", "Transition not allowed", err, http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.WithDetails(illegalTransitionDetails{
			OrderID: illegalErr.OrderID,
			Current: string(illegalErr.Current),
			Target:  string(illegalErr.Target),
			Reason:  illegalErr.Reason,
		}))
		return
	}

	var partial *usecase.PartialCascadeFailure
	if errors.As(err, &partial) {
		appErr := pkg.NewDomainError("PARTIAL_CASCADE_FAILURE", "Some orders could not be updated", err, http.StatusMultiStatus)
		c.JSON(appErr.HTTPStatus, appErr.WithDetails(partial.Result))
		return
	}

	appErr := mapOrderError(err)
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}

func mapOrderError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return pkg.NewDomainErrorSimple("NOT_FOUND", "Resource not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrIllegalTransition):
		return pkg.NewDomainError("ILLEGAL_TRANSITION", "Transition not allowed", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvoiceRequired):
		return pkg.NewDomainErrorSimple("INVOICE_REQUIRED", "An invoice must be attached first", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidInvoiceItem):
		return pkg.NewDomainError("INVALID_INVOICE_ITEM", "Invalid invoice item", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrFollowUpNotEligible):
		return pkg.NewDomainError("FOLLOW_UP_NOT_ELIGIBLE", "Order is not eligible for a follow-up", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidInput):
		return pkg.NewDomainError("INVALID_REQUEST", "Invalid request", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvoiceAlreadyAttached):
		return pkg.NewDomainErrorSimple("INVOICE_ALREADY_ATTACHED", "Order already has an invoice", http.StatusConflict)
	case errors.Is(err, usecase.ErrConflict):
		return pkg.NewDomainErrorSimple("CONFLICT", "Order was modified concurrently, retry", http.StatusConflict)
	case errors.Is(err, usecase.ErrAccountBlacklisted):
		return pkg.NewDomainErrorSimple("ACCOUNT_BLACKLISTED", "Account is blacklisted", http.StatusConflict)
	case errors.Is(err, usecase.ErrPaymentNotApproved):
		return pkg.NewDomainError("PAYMENT_NOT_APPROVED", "Payment is not approved", err, http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func requireActor(c *gin.Context) (entities.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
		return entities.Actor{}, false
	}
	return actor, true
}
