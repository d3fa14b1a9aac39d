package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"

	"homefix_orders/internal/usecase/interfaces"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")
var ErrInvalidPaymentID = errors.New("invalid mercado pago payment id")

// paymentGetter is the slice of the SDK client the verifier needs.
type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoVerifier looks payments up on Mercado Pago. In mock mode every
// payment is reported approved.
type MercadoPagoVerifier struct {
	client   paymentGetter
	mockMode bool
	log      *zap.Logger
}

var _ interfaces.IPaymentVerifier = (*MercadoPagoVerifier)(nil)

func NewMercadoPagoVerifier(accessToken string, mockMode bool, logger *zap.Logger) (*MercadoPagoVerifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mockMode {
		logger.Info("payment.gateway.mock_enabled")
		return &MercadoPagoVerifier{mockMode: true, log: logger}, nil
	}

	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		logger.Error("payment.gateway.config_failed", zap.Error(err))
		return nil, err
	}
	logger.Info("payment.gateway.ready", zap.Bool("sandbox", strings.HasPrefix(accessToken, "TEST-")))

	return &MercadoPagoVerifier{client: payment.NewClient(cfg), log: logger}, nil
}

func (g *MercadoPagoVerifier) GetPayment(ctx context.Context, providerPaymentID string) (interfaces.PaymentStatus, error) {
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	if g != nil && g.mockMode {
		return interfaces.PaymentStatus{ID: providerPaymentID, Status: "approved"}, nil
	}
	if g == nil || g.client == nil {
		return interfaces.PaymentStatus{}, ErrMercadoPagoGatewayNotConfigured
	}

	id, err := strconv.Atoi(providerPaymentID)
	if err != nil || id <= 0 {
		return interfaces.PaymentStatus{}, fmt.Errorf("%w: %q", ErrInvalidPaymentID, providerPaymentID)
	}

	resp, err := g.client.Get(ctx, id)
	if err != nil {
		g.log.Warn("payment.gateway.get_failed", zap.Int("payment_id", id), zap.Error(err))
		return interfaces.PaymentStatus{}, err
	}
	g.log.Info("payment.gateway.get", zap.Int("payment_id", resp.ID), zap.String("status", resp.Status))

	return interfaces.PaymentStatus{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
	}, nil
}
