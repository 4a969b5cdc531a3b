package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ProductMetrics struct {
	ProductsCreatedTotal prometheus.Counter
	ProductLookupsTotal  *prometheus.CounterVec
	ProductStoreErrors   *prometheus.CounterVec
}

func NewProductMetrics(reg prometheus.Registerer) *ProductMetrics {
	factory := promauto.With(reg)
	return &ProductMetrics{
		ProductsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "products_created_total",
				Help: "Products saved through the product facade",
			},
		),

		ProductLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_lookups_total",
				Help: "Product lookups by operation and result",
			},
			[]string{"op", "result"},
		),

		ProductStoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_store_errors_total",
				Help: "Errors returned by the product store",
			},
			[]string{"op"},
		),
	}
}

func (m *ProductMetrics) RecordCreated() {
	if m == nil {
		return
	}
	m.ProductsCreatedTotal.Inc()
}

// RecordLookup records a lookup; found is false for not-found results.
func (m *ProductMetrics) RecordLookup(op string, found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
	}
	m.ProductLookupsTotal.WithLabelValues(op, result).Inc()
}

func (m *ProductMetrics) RecordStoreError(op string) {
	if m == nil {
		return
	}
	m.ProductStoreErrors.WithLabelValues(op).Inc()
}
