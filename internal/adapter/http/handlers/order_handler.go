package handlers

import (
	"net/http"
	"strings"

	request "homefix_orders/internal/adapter/http/dto/request"
	response "homefix_orders/internal/adapter/http/dto/response"
	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase"
	"homefix_orders/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errInvalidStatus      = pkg.NewDomainErrorSimple("INVALID_STATUS", "Unknown order status", http.StatusBadRequest)
	errInvalidInvoiceMode = pkg.NewDomainErrorSimple("INVALID_INVOICE_MODE", "Invoice mode must be CREATE or REPLACE", http.StatusBadRequest)
)

// OrderViewers attaches a live viewer to an order's change stream.
type OrderViewers interface {
	Serve(w http.ResponseWriter, r *http.Request, orderID string) error
}

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	usecase usecase.IOrderUseCase
	viewers OrderViewers
	log     *zap.Logger
}

func NewOrderHandler(uc usecase.IOrderUseCase, viewers OrderViewers, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{usecase: uc, viewers: viewers, log: logger}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload request.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}

	order, err := h.usecase.PlaceOrder(c.Request.Context(), usecase.PlaceOrderCommand{
		CustomerID:    payload.ResolveCustomerID(actor),
		ServiceID:     strings.TrimSpace(payload.ServiceID),
		ScheduledDate: payload.ScheduledDate,
		Notes:         payload.Notes,
		Actor:         actor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromOrder(order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	order, err := h.usecase.GetOrder(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

func (h *OrderHandler) Transition(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload request.TransitionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}
	target, ok := entities.ParseOrderStatus(payload.Status)
	if !ok {
		c.JSON(errInvalidStatus.HTTPStatus, errInvalidStatus.ToHTTPError())
		return
	}

	order, err := h.usecase.Transition(c.Request.Context(), usecase.TransitionCommand{
		OrderID:  c.Param("id"),
		Target:   target,
		Actor:    actor,
		WorkerID: strings.TrimSpace(payload.WorkerID),
		Reason:   payload.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

func (h *OrderHandler) Invoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload request.InvoiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}
	mode, ok := payload.ResolveMode()
	if !ok {
		c.JSON(errInvalidInvoiceMode.HTTPStatus, errInvalidInvoiceMode.ToHTTPError())
		return
	}

	order, err := h.usecase.Invoice(c.Request.Context(), usecase.InvoiceCommand{
		OrderID:  c.Param("id"),
		Items:    payload.LineItems(),
		Mode:     mode,
		Actor:    actor,
		Finalize: payload.Finalize,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

func (h *OrderHandler) ProposeFollowUp(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload request.FollowUpRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}

	order, err := h.usecase.ProposeFollowUp(c.Request.Context(), usecase.ProposeFollowUpCommand{
		OrderID: c.Param("id"),
		Service: payload.Service(),
		Actor:   actor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

func (h *OrderHandler) ScheduleFollowUp(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload request.ScheduleFollowUpRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}

	order, err := h.usecase.ScheduleFollowUp(c.Request.Context(), usecase.ScheduleFollowUpCommand{
		OrderID: c.Param("id"),
		Date:    payload.Date,
		Notes:   payload.Notes,
		Actor:   actor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

// WatchOrder upgrades to a websocket streaming the order's status changes.
// Only callers who may read the order can watch it.
func (h *OrderHandler) WatchOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	order, err := h.usecase.GetOrder(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.viewers == nil {
		c.JSON(http.StatusServiceUnavailable, pkg.NewDomainErrorSimple("LIVE_UPDATES_DISABLED", "Live updates are not enabled", http.StatusServiceUnavailable).ToHTTPError())
		return
	}

	if err := h.viewers.Serve(c.Writer, c.Request, order.ID); err != nil {
		h.log.Warn("order.watch.upgrade_failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}
