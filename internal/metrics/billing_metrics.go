package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Dhoini/billing-service/pkg/logger"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncWebhookEvent(eventType, outcome string)
	IncCheckoutSession()
	IncStatusRead(source string)
	IncSyncResult(outcome string)
}

type billingMetrics struct {
	log              *logger.Logger
	webhookEvents    *prometheus.CounterVec
	checkoutSessions prometheus.Counter
	statusReads      *prometheus.CounterVec
	syncResults      *prometheus.CounterVec
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "The total number of processed webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	checkoutSessions := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "billing_checkout_sessions_total",
			Help: "The total number of created checkout sessions",
		},
	)

	statusReads := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_status_reads_total",
			Help: "The total number of subscription status reads by data source",
		},
		[]string{"source"},
	)

	syncResults := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_sync_results_total",
			Help: "The total number of manual sync results by outcome",
		},
		[]string{"outcome"},
	)

	return &billingMetrics{
		log:              log,
		webhookEvents:    webhookEvents,
		checkoutSessions: checkoutSessions,
		statusReads:      statusReads,
		syncResults:      syncResults,
	}
}

// IncWebhookEvent увеличивает счетчик webhook-событий
func (m *billingMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncCheckoutSession увеличивает счетчик созданных checkout-сессий
func (m *billingMetrics) IncCheckoutSession() {
	m.checkoutSessions.Inc()
}

// IncStatusRead увеличивает счетчик чтений статуса подписки
func (m *billingMetrics) IncStatusRead(source string) {
	m.statusReads.WithLabelValues(source).Inc()
}

// IncSyncResult увеличивает счетчик результатов ручной синхронизации
func (m *billingMetrics) IncSyncResult(outcome string) {
	m.syncResults.WithLabelValues(outcome).Inc()
}
