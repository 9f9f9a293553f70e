// Package metrics содержит Prometheus-метрики абонементов и сверок.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// BillingMetrics метрики жизненного цикла абонементов.
type BillingMetrics interface {
	IncPassCreated()
	IncPassCharged(amount decimal.Decimal)
	IncPassDeactivated(reason string)
	ObserveSweep(sweep string, d time.Duration, failed int)
}

type billingMetrics struct {
	passesCreated     prometheus.Counter
	passesCharged     prometheus.Counter
	chargedAmount     prometheus.Counter
	passesDeactivated *prometheus.CounterVec
	sweepDuration     *prometheus.HistogramVec
	sweepFailures     *prometheus.CounterVec
}

// NewBillingMetrics регистрирует метрики в registry.
func NewBillingMetrics(registry prometheus.Registerer) BillingMetrics {
	factory := promauto.With(registry)
	return &billingMetrics{
		passesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gym_passes_created_total",
			Help: "The total number of created passes",
		}),
		passesCharged: factory.NewCounter(prometheus.CounterOpts{
			Name: "gym_pass_charges_total",
			Help: "The total number of successful recurring charges",
		}),
		chargedAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "gym_charged_amount_total",
			Help: "Sum of all charged amounts",
		}),
		passesDeactivated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gym_passes_deactivated_total",
			Help: "The total number of deactivated passes by reason",
		}, []string{"reason"}),
		sweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gym_sweep_duration_seconds",
			Help:    "Duration of billing sweeps",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"sweep"}),
		sweepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gym_sweep_pass_failures_total",
			Help: "Passes that could not be processed during a sweep",
		}, []string{"sweep"}),
	}
}

// IncPassCreated увеличивает счётчик созданных абонементов
func (m *billingMetrics) IncPassCreated() {
	m.passesCreated.Inc()
}

// IncPassCharged учитывает успешное ежемесячное списание
func (m *billingMetrics) IncPassCharged(amount decimal.Decimal) {
	m.passesCharged.Inc()
	m.chargedAmount.Add(amount.InexactFloat64())
}

// IncPassDeactivated увеличивает счётчик деактиваций по причине
func (m *billingMetrics) IncPassDeactivated(reason string) {
	m.passesDeactivated.WithLabelValues(reason).Inc()
}

// ObserveSweep записывает длительность сверки и число необработанных абонементов
func (m *billingMetrics) ObserveSweep(sweep string, d time.Duration, failed int) {
	m.sweepDuration.WithLabelValues(sweep).Observe(d.Seconds())
	if failed > 0 {
		m.sweepFailures.WithLabelValues(sweep).Add(float64(failed))
	}
}

// Noop метрики-заглушка для тестов и окружений без Prometheus.
type Noop struct{}

func (Noop) IncPassCreated()                          {}
func (Noop) IncPassCharged(decimal.Decimal)           {}
func (Noop) IncPassDeactivated(string)                {}
func (Noop) ObserveSweep(string, time.Duration, int) {}
