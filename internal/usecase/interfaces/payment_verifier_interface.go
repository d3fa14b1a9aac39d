package interfaces

import "context"

// PaymentStatus is what the payment provider reports for one payment.
type PaymentStatus struct {
	ID                string
	Status            string
	ExternalReference string
}

// IPaymentVerifier abstracts external payment providers (e.g. Mercado Pago).
//
// The engine does not process payments; it only asks whether a payment the
// customer already made has been approved before marking an order PAID.
type IPaymentVerifier interface {
	GetPayment(ctx context.Context, providerPaymentID string) (PaymentStatus, error)
}
