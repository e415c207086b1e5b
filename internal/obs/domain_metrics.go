package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RowsRepricedTotal counts bill row recomputations by edited field.
	RowsRepricedTotal *prometheus.CounterVec
	// BillsSavedTotal counts finalized bills.
	BillsSavedTotal prometheus.Counter
	// CheckoutOrdersTotal counts WhatsApp checkout links handed out.
	CheckoutOrdersTotal prometheus.Counter
	// DailySummaryRebuilds counts full rebuilds of the daily sales summary.
	DailySummaryRebuilds prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RowsRepricedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_rows_repriced_total",
			Help:      "Count of bill row recomputations by edited field.",
		}, []string{"field"})
		BillsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_saved_total",
			Help:      "Count of bills finalized into the sales journal.",
		})
		CheckoutOrdersTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_orders_total",
			Help:      "Count of checkout orders handed off to WhatsApp.",
		})
		DailySummaryRebuilds = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_summary_rebuilds_total",
			Help:      "Count of full daily summary rebuilds.",
		})

		mustRegisterCollector(reg, RowsRepricedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RowsRepricedTotal = v
			}
		})
		mustRegisterCollector(reg, BillsSavedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BillsSavedTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutOrdersTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CheckoutOrdersTotal = v
			}
		})
		mustRegisterCollector(reg, DailySummaryRebuilds, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DailySummaryRebuilds = v
			}
		})
	})
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
