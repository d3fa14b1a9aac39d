package handlers

import (
	"net/http"
	"strings"

	request "homefix_orders/internal/adapter/http/dto/request"
	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase"
	"homefix_orders/pkg"

	"github.com/gin-gonic/gin"
)

var errInvalidAccountKind = pkg.NewDomainErrorSimple("INVALID_ACCOUNT_KIND", "Account kind must be customer or provider", http.StatusBadRequest)

// AdminHandler exposes the blacklist cascade to platform admins.
type AdminHandler struct {
	cascade usecase.IBlacklistCascadeUseCase
}

func NewAdminHandler(uc usecase.IBlacklistCascadeUseCase) *AdminHandler {
	return &AdminHandler{cascade: uc}
}

// SetBlacklist flips the account flag and, when blacklisting, moves the
// account's open orders. A partial failure answers 207 with the full result.
func (h *AdminHandler) SetBlacklist(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind := entities.AccountKind(strings.ToUpper(strings.TrimSpace(c.Param("kind"))))
	if !kind.Valid() {
		c.JSON(errInvalidAccountKind.HTTPStatus, errInvalidAccountKind.ToHTTPError())
		return
	}
	var payload request.BlacklistRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
			return
		}
	}

	result, err := h.cascade.Cascade(c.Request.Context(), usecase.CascadeCommand{
		AccountID:   c.Param("id"),
		Kind:        kind,
		Blacklisted: payload.ResolveBlacklisted(),
		Actor:       actor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
