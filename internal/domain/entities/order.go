package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a single service request placed by a customer on a provider's service.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (customer_id-index): customer_id
//   - GSI2 (provider_id-index): provider_id
//
// Invoice always belongs to the current booking cycle. Scheduling a follow-up
// moves it to PreviousInvoice, so the next cycle must be invoiced again.
//
// Version is incremented on every successful write and guards concurrent updates.
// ProviderID is resolved from the service when the order is placed.
type Order struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customer_id"`
	ServiceID       string           `json:"service_id"`
	ProviderID      string           `json:"provider_id"`
	WorkerID        string           `json:"worker_id,omitempty"`
	Status          OrderStatus      `json:"status"`
	ScheduledDate   time.Time        `json:"scheduled_date"`
	Notes           string           `json:"notes,omitempty"`
	Invoice         *Invoice         `json:"invoice,omitempty"`
	PreviousInvoice *Invoice         `json:"previous_invoice,omitempty"`
	FollowUpService *FollowUpService `json:"follow_up_service,omitempty"`
	Complaint       string           `json:"complaint,omitempty"`
	Feedback        string           `json:"feedback,omitempty"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Invoice is the line-itemized bill attached to an order. There is no stored total.
type Invoice struct {
	CreatedAt time.Time         `json:"created_at"`
	Items     []InvoiceLineItem `json:"items"`
}

// InvoiceLineItem carries a bilingual name and a price kept as the decimal string it was submitted with.
type InvoiceLineItem struct {
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
	Price  string `json:"price"`
}

// FollowUpService is a secondary service a worker offers once the job is finished.
// ScheduledAt is set when the customer books it; a booked offer cannot be booked again.
type FollowUpService struct {
	Category      string     `json:"category"`
	NameEN        string     `json:"name_en"`
	NameAR        string     `json:"name_ar"`
	DescriptionEN string     `json:"description_en,omitempty"`
	DescriptionAR string     `json:"description_ar,omitempty"`
	Price         string     `json:"price"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

// Schedulable reports whether the offer is still waiting to be booked.
func (f *FollowUpService) Schedulable() bool {
	return f != nil && f.ScheduledAt == nil
}

// Total sums item prices. Items are validated on write, so unparsable prices are skipped.
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	if i == nil {
		return total
	}
	for _, it := range i.Items {
		p, err := decimal.NewFromString(it.Price)
		if err != nil {
			continue
		}
		total = total.Add(p)
	}
	return total
}

// Clone returns a deep copy so callers can mutate a snapshot safely.
func (o Order) Clone() Order {
	out := o
	out.Invoice = o.Invoice.clone()
	out.PreviousInvoice = o.PreviousInvoice.clone()
	if o.FollowUpService != nil {
		fu := *o.FollowUpService
		if fu.ScheduledAt != nil {
			at := *fu.ScheduledAt
			fu.ScheduledAt = &at
		}
		out.FollowUpService = &fu
	}
	return out
}

func (i *Invoice) clone() *Invoice {
	if i == nil {
		return nil
	}
	inv := *i
	inv.Items = append([]InvoiceLineItem(nil), i.Items...)
	return &inv
}

// IsFollowUp reports whether the order carries a proposed follow-up service.
func (o Order) IsFollowUp() bool {
	return o.FollowUpService != nil
}
