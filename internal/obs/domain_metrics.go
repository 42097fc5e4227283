package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillTotalsTotal counts bill total computations by outcome.
	BillTotalsTotal *prometheus.CounterVec
	// BillSavedTotal counts persisted bills by payment status.
	BillSavedTotal *prometheus.CounterVec
	// PaymentLinkTotal counts payment deep-link builds by outcome.
	PaymentLinkTotal *prometheus.CounterVec
	// PaymentQRRenderTotal counts QR image renders by outcome.
	PaymentQRRenderTotal *prometheus.CounterVec
	// PaymentQRRenderLatency records QR render latency in milliseconds.
	PaymentQRRenderLatency prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers billing Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillTotalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_totals_total",
			Help:      "Count of bill total computations by outcome.",
		}, []string{"result"})
		BillSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_saved_total",
			Help:      "Count of bills written to the document store by payment status.",
		}, []string{"status"})
		PaymentLinkTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_link_total",
			Help:      "Count of payment deep-link builds by outcome.",
		}, []string{"result"})
		PaymentQRRenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_qr_render_total",
			Help:      "Count of payment QR renders by outcome.",
		}, []string{"result"})
		PaymentQRRenderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_qr_render_duration_ms",
			Help:      "Latency of payment QR renders in milliseconds.",
			Buckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
		})

		mustRegisterCollector(reg, BillTotalsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillTotalsTotal = v
			}
		})
		mustRegisterCollector(reg, BillSavedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillSavedTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentLinkTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentLinkTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentQRRenderTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentQRRenderTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentQRRenderLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PaymentQRRenderLatency = v
			}
		})
	})
}

// CountResult increments vec for label when the collector has been registered.
func CountResult(vec *prometheus.CounterVec, label string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(label).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
