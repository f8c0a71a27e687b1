// Package metrics exposes prometheus collectors for catalog scans.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scan holds the collectors recorded by the parallel projection scheduler
type Scan struct {
	ProductsScanned prometheus.Counter
	ProductsAtRisk  prometheus.Counter
	ProductFailures *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
}

// NewScan creates the scan collectors and registers them with the registry.
// Pass nil to skip registration (tests).
func NewScan(reg prometheus.Registerer) *Scan {
	m := &Scan{
		ProductsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ruptura_scan_products_total",
			Help: "Products projected during catalog scans.",
		}),
		ProductsAtRisk: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ruptura_scan_products_at_risk_total",
			Help: "Products classified at risk during catalog scans.",
		}),
		ProductFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ruptura_scan_product_failures_total",
			Help: "Per-product projection failures during catalog scans.",
		}, []string{"code"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ruptura_scan_duration_seconds",
			Help:    "Wall time of catalog scans.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ProductsScanned, m.ProductsAtRisk, m.ProductFailures, m.ScanDuration)
	}
	return m
}

// ObserveScan records one finished scan
func (m *Scan) ObserveScan(scanned, atRisk int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProductsScanned.Add(float64(scanned))
	m.ProductsAtRisk.Add(float64(atRisk))
	m.ScanDuration.Observe(duration.Seconds())
}

// ObserveFailure records one per-product failure with its taxonomy code
func (m *Scan) ObserveFailure(errorCode string) {
	if m == nil {
		return
	}
	m.ProductFailures.WithLabelValues(errorCode).Inc()
}
