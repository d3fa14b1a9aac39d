package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"homefix_orders/internal/adapter/http/handlers/mocks"
	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func TestAdminHandler_SetBlacklist(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("unknown kind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := NewAdminHandler(mocks.NewMockIBlacklistCascadeUseCase(ctrl))
		r := gin.New()
		r.POST("/v1/admin/accounts/:kind/:id/blacklist", asActor(admin), h.SetBlacklist)

		w := serve(r, http.MethodPost, "/v1/admin/accounts/worker/w-1/blacklist", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("empty body blacklists", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIBlacklistCascadeUseCase(ctrl)
		h := NewAdminHandler(uc)
		r := gin.New()
		r.POST("/v1/admin/accounts/:kind/:id/blacklist", asActor(admin), h.SetBlacklist)

		uc.EXPECT().Cascade(gomock.Any(), usecase.CascadeCommand{
			AccountID: "prov-1", Kind: entities.AccountKindProvider, Blacklisted: true, Actor: admin,
		}).Return(usecase.CascadeResult{AccountID: "prov-1", Kind: entities.AccountKindProvider, Blacklisted: true, FlagUpdated: true}, nil)

		w := serve(r, http.MethodPost, "/v1/admin/accounts/provider/prov-1/blacklist", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("lift blacklist", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIBlacklistCascadeUseCase(ctrl)
		h := NewAdminHandler(uc)
		r := gin.New()
		r.POST("/v1/admin/accounts/:kind/:id/blacklist", asActor(admin), h.SetBlacklist)

		uc.EXPECT().Cascade(gomock.Any(), usecase.CascadeCommand{
			AccountID: "cust-1", Kind: entities.AccountKindCustomer, Blacklisted: false, Actor: admin,
		}).Return(usecase.CascadeResult{AccountID: "cust-1", FlagUpdated: true}, nil)

		w := serve(r, http.MethodPost, "/v1/admin/accounts/customer/cust-1/blacklist", `{"blacklisted":false}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("partial failure answers 207 with result", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIBlacklistCascadeUseCase(ctrl)
		h := NewAdminHandler(uc)
		r := gin.New()
		r.POST("/v1/admin/accounts/:kind/:id/blacklist", asActor(admin), h.SetBlacklist)

		result := usecase.CascadeResult{
			AccountID:   "cust-1",
			Kind:        entities.AccountKindCustomer,
			Blacklisted: true,
			Changed:     []usecase.CascadeChange{{OrderID: "ord-1", From: entities.OrderStatusPending, To: entities.OrderStatusCanceled}},
			Failed:      []usecase.CascadeFailure{{OrderID: "ord-2", Cause: "write failed"}},
			FlagUpdated: true,
		}
		uc.EXPECT().Cascade(gomock.Any(), gomock.Any()).Return(result, &usecase.PartialCascadeFailure{Result: result})

		w := serve(r, http.MethodPost, "/v1/admin/accounts/customer/cust-1/blacklist", "")
		if w.Code != http.StatusMultiStatus {
			t.Fatalf("expected 207, got %d", w.Code)
		}
		var body struct {
			Code    string                `json:"code"`
			Details usecase.CascadeResult `json:"details"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json response: %v", err)
		}
		if body.Code != "PARTIAL_CASCADE_FAILURE" || len(body.Details.Failed) != 1 || body.Details.Failed[0].OrderID != "ord-2" || !body.Details.FlagUpdated {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("non admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIBlacklistCascadeUseCase(ctrl)
		h := NewAdminHandler(uc)
		r := gin.New()
		r.POST("/v1/admin/accounts/:kind/:id/blacklist", asActor(customer), h.SetBlacklist)

		uc.EXPECT().Cascade(gomock.Any(), gomock.Any()).Return(usecase.CascadeResult{}, usecase.ErrInvalidInput)

		w := serve(r, http.MethodPost, "/v1/admin/accounts/customer/cust-2/blacklist", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIBlacklistCascadeUseCase(ctrl)
		h := NewAdminHandler(uc)
		r := gin.New()
		r.POST("/v1/admin/accounts/:kind/:id/blacklist", asActor(admin), h.SetBlacklist)

		uc.EXPECT().Cascade(gomock.Any(), gomock.Any()).Return(usecase.CascadeResult{}, errors.New("list orders: timeout"))

		w := serve(r, http.MethodPost, "/v1/admin/accounts/customer/cust-2/blacklist", "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}
