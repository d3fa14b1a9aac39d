package handlers

import (
	"net/http"
	"strings"

	request "homefix_orders/internal/adapter/http/dto/request"
	response "homefix_orders/internal/adapter/http/dto/response"
	"homefix_orders/internal/usecase"

	"github.com/gin-gonic/gin"
)

// PaymentHandler marks invoiced orders paid once the customer's payment is confirmed.
type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload request.ConfirmPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
			return
		}
	}

	order, err := h.usecase.ConfirmPayment(c.Request.Context(), usecase.ConfirmPaymentCommand{
		OrderID:           c.Param("id"),
		ProviderPaymentID: strings.TrimSpace(payload.ProviderPaymentID),
		Actor:             actor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}
