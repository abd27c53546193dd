package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks STK push initiations and settlement outcomes.
type PaymentMetrics struct {
	initiations *prometheus.CounterVec
	settlements *prometheus.CounterVec
	duplicates  prometheus.Counter
	unknownRefs prometheus.Counter
	pushLatency prometheus.Histogram
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Payment initiation attempts by method and result.",
	}, []string{"method", "result"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_settlements_total",
		Help: "Settled payment callbacks by terminal status.",
	}, []string{"status"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_duplicate_callbacks_total",
		Help: "Callbacks received for transactions already in a terminal state.",
	})
	unknownRefs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_unknown_reference_callbacks_total",
		Help: "Callbacks whose checkout reference matched no transaction.",
	})
	pushLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_stk_push_duration_seconds",
		Help:    "Latency of outbound STK push requests.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(initiations, settlements, duplicates, unknownRefs, pushLatency)
	return &PaymentMetrics{
		initiations: initiations,
		settlements: settlements,
		duplicates:  duplicates,
		unknownRefs: unknownRefs,
		pushLatency: pushLatency,
	}
}

// IncInitiation records one initiation attempt for the given method and result.
func (p *PaymentMetrics) IncInitiation(method, result string) {
	if p == nil || p.initiations == nil {
		return
	}
	p.initiations.WithLabelValues(normalizeLabel(method), normalizeLabel(result)).Inc()
}

// IncSettlement records one settled callback by terminal status.
func (p *PaymentMetrics) IncSettlement(status string) {
	if p == nil || p.settlements == nil {
		return
	}
	p.settlements.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncDuplicateCallback records a callback for an already settled transaction.
func (p *PaymentMetrics) IncDuplicateCallback() {
	if p == nil || p.duplicates == nil {
		return
	}
	p.duplicates.Inc()
}

// IncUnknownReference records a callback that matched no known transaction.
func (p *PaymentMetrics) IncUnknownReference() {
	if p == nil || p.unknownRefs == nil {
		return
	}
	p.unknownRefs.Inc()
}

// ObservePushLatency records the duration of one outbound STK push call.
func (p *PaymentMetrics) ObservePushLatency(d time.Duration) {
	if p == nil || p.pushLatency == nil {
		return
	}
	p.pushLatency.Observe(d.Seconds())
}
