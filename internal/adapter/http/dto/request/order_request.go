package request

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase"
)

// Amount accepts a price as either a JSON string or a JSON number and keeps
// the literal text, so decimal precision survives binding.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

type PlaceOrderRequest struct {
	CustomerID    string    `json:"customer_id"`
	ServiceID     string    `json:"service_id" binding:"required"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	Notes         string    `json:"notes"`
}

// ResolveCustomerID defaults to the caller when the body omits customer_id.
func (r PlaceOrderRequest) ResolveCustomerID(actor entities.Actor) string {
	if v := strings.TrimSpace(r.CustomerID); v != "" {
		return v
	}
	if actor.Role == entities.RoleCustomer {
		return actor.ID
	}
	return ""
}

type TransitionRequest struct {
	Status   string `json:"status" binding:"required"`
	WorkerID string `json:"worker_id"`
	Reason   string `json:"reason"`
}

type InvoiceItemRequest struct {
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
	Price  Amount `json:"price"`
}

type InvoiceRequest struct {
	Mode     string               `json:"mode"`
	Items    []InvoiceItemRequest `json:"items"`
	Finalize bool                 `json:"finalize"`
}

// ResolveMode defaults to CREATE.
func (r InvoiceRequest) ResolveMode() (usecase.InvoiceMode, bool) {
	if strings.TrimSpace(r.Mode) == "" {
		return usecase.InvoiceModeCreate, true
	}
	return usecase.ParseInvoiceMode(r.Mode)
}

func (r InvoiceRequest) LineItems() []entities.InvoiceLineItem {
	items := make([]entities.InvoiceLineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, entities.InvoiceLineItem{NameEN: it.NameEN, NameAR: it.NameAR, Price: string(it.Price)})
	}
	return items
}

type FollowUpRequest struct {
	Category      string `json:"category"`
	NameEN        string `json:"name_en"`
	NameAR        string `json:"name_ar"`
	DescriptionEN string `json:"description_en"`
	DescriptionAR string `json:"description_ar"`
	Price         Amount `json:"price"`
}

func (r FollowUpRequest) Service() entities.FollowUpService {
	return entities.FollowUpService{
		Category:      r.Category,
		NameEN:        r.NameEN,
		NameAR:        r.NameAR,
		DescriptionEN: r.DescriptionEN,
		DescriptionAR: r.DescriptionAR,
		Price:         string(r.Price),
	}
}

type ScheduleFollowUpRequest struct {
	Date  time.Time `json:"date" binding:"required"`
	Notes string    `json:"notes"`
}

type ConfirmPaymentRequest struct {
	ProviderPaymentID string `json:"provider_payment_id"`
}

type BlacklistRequest struct {
	Blacklisted *bool `json:"blacklisted"`
}

// ResolveBlacklisted defaults to true so an empty body blacklists.
func (r BlacklistRequest) ResolveBlacklisted() bool {
	if r.Blacklisted == nil {
		return true
	}
	return *r.Blacklisted
}
