package response

import (
	"time"

	"homefix_orders/internal/domain/entities"
)

type InvoiceItemResponse struct {
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
	Price  string `json:"price"`
}

type InvoiceResponse struct {
	CreatedAt time.Time             `json:"created_at"`
	Items     []InvoiceItemResponse `json:"items"`
	Total     string                `json:"total"`
}

type FollowUpServiceResponse struct {
	Category      string     `json:"category"`
	NameEN        string     `json:"name_en"`
	NameAR        string     `json:"name_ar"`
	DescriptionEN string     `json:"description_en,omitempty"`
	DescriptionAR string     `json:"description_ar,omitempty"`
	Price         string     `json:"price"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

type OrderResponse struct {
	ID              string                   `json:"id"`
	OrderID         string                   `json:"order_id"`
	CustomerID      string                   `json:"customer_id"`
	ServiceID       string                   `json:"service_id"`
	ProviderID      string                   `json:"provider_id"`
	WorkerID        string                   `json:"worker_id,omitempty"`
	Status          string                   `json:"status"`
	ScheduledDate   time.Time                `json:"scheduled_date"`
	Notes           string                   `json:"notes,omitempty"`
	Invoice         *InvoiceResponse         `json:"invoice,omitempty"`
	PreviousInvoice *InvoiceResponse         `json:"previous_invoice,omitempty"`
	FollowUpService *FollowUpServiceResponse `json:"follow_up_service,omitempty"`
	IsFollowUp      bool                     `json:"is_follow_up"`
	Version         int64                    `json:"version"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func FromOrder(o entities.Order) OrderResponse {
	res := OrderResponse{
		ID:            o.ID,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		ServiceID:     o.ServiceID,
		ProviderID:    o.ProviderID,
		WorkerID:      o.WorkerID,
		Status:        string(o.Status),
		ScheduledDate: o.ScheduledDate,
		Notes:         o.Notes,
		IsFollowUp:    o.IsFollowUp(),
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	res.Invoice = fromInvoice(o.Invoice)
	res.PreviousInvoice = fromInvoice(o.PreviousInvoice)
	if f := o.FollowUpService; f != nil {
		res.FollowUpService = &FollowUpServiceResponse{
			Category:      f.Category,
			NameEN:        f.NameEN,
			NameAR:        f.NameAR,
			DescriptionEN: f.DescriptionEN,
			DescriptionAR: f.DescriptionAR,
			Price:         f.Price,
			ScheduledAt:   f.ScheduledAt,
		}
	}
	return res
}

func fromInvoice(i *entities.Invoice) *InvoiceResponse {
	if i == nil {
		return nil
	}
	inv := &InvoiceResponse{
		CreatedAt: i.CreatedAt,
		Items:     make([]InvoiceItemResponse, 0, len(i.Items)),
		Total:     i.Total().StringFixed(2),
	}
	for _, it := range i.Items {
		inv.Items = append(inv.Items, InvoiceItemResponse(it))
	}
	return inv
}
