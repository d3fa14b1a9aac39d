package metrics

import (
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/infrastructure/notify"
	"homefix_orders/internal/usecase/interfaces"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "homefix"
	subsystem = "orders"
)

// OrderMetrics exports lifecycle counters to Prometheus.
type OrderMetrics struct {
	transitionsApplied  *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
	cascadeOrders       *prometheus.CounterVec
	cascadeDuration     *prometheus.HistogramVec
	notifyDropped       prometheus.Counter
	notifyFailed        *prometheus.CounterVec
}

var (
	_ interfaces.IOrderMetrics = (*OrderMetrics)(nil)
	_ notify.Recorder          = (*OrderMetrics)(nil)
)

// NewOrderMetrics registers the collectors on reg; nil means the default registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &OrderMetrics{
		transitionsApplied: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_applied_total",
				Help:      "Committed status transitions by edge",
			},
			[]string{"from", "to"},
		),
		transitionsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_rejected_total",
				Help:      "Rejected transition requests by target and reason",
			},
			[]string{"to", "reason"},
		),
		cascadeOrders: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cascade_orders_total",
				Help:      "Orders touched by blacklist cascades by outcome",
			},
			[]string{"kind", "outcome"},
		),
		cascadeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cascade_duration_seconds",
				Help:      "Duration of blacklist cascades in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 7),
			},
			[]string{"kind"},
		),
		notifyDropped: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_dropped_total",
				Help:      "Status change events dropped because the notifier buffer was full",
			},
		),
		notifyFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notification_failures_total",
				Help:      "Failed deliveries by sink",
			},
			[]string{"sink"},
		),
	}
}

func (m *OrderMetrics) TransitionApplied(from, to entities.OrderStatus) {
	m.transitionsApplied.WithLabelValues(statusLabel(from), statusLabel(to)).Inc()
}

func (m *OrderMetrics) TransitionRejected(to entities.OrderStatus, reason string) {
	m.transitionsRejected.WithLabelValues(statusLabel(to), reason).Inc()
}

func (m *OrderMetrics) CascadeCompleted(kind entities.AccountKind, changed, skipped, failed int, elapsed time.Duration) {
	k := string(kind)
	m.cascadeOrders.WithLabelValues(k, "changed").Add(float64(changed))
	m.cascadeOrders.WithLabelValues(k, "skipped").Add(float64(skipped))
	m.cascadeOrders.WithLabelValues(k, "failed").Add(float64(failed))
	m.cascadeDuration.WithLabelValues(k).Observe(elapsed.Seconds())
}

func (m *OrderMetrics) NotificationDropped() {
	m.notifyDropped.Inc()
}

func (m *OrderMetrics) NotificationFailed(sink string) {
	m.notifyFailed.WithLabelValues(sink).Inc()
}

// statusLabel keeps label cardinality bounded to the registered statuses.
func statusLabel(s entities.OrderStatus) string {
	if s == "" {
		return "none"
	}
	if _, ok := entities.ParseOrderStatus(string(s)); !ok {
		return "unknown"
	}
	return string(s)
}
