package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated   prometheus.Counter
	ordersPaid      prometheus.Counter
	ordersCancelled prometheus.Counter
	ordersCompleted prometheus.Counter

	// Складские события
	reservationFailures prometheus.Counter
	stockMovements      *prometheus.CounterVec

	// Гистограмма времени оформления заказа
	checkoutDuration prometheus.Histogram

	// События доставки
	deliveryTransitions *prometheus.CounterVec

	// Конфликты версий при конкурентных обновлениях
	versionConflicts prometheus.Counter
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sonica_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersPaid: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sonica_orders_paid_total",
			Help: "Total number of orders marked as paid",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sonica_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		ordersCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sonica_orders_completed_total",
			Help: "Total number of orders completed",
		}),
		reservationFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sonica_stock_reservation_failures_total",
			Help: "Total number of checkout attempts rejected for insufficient stock",
		}),
		stockMovements: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "sonica_stock_movements_total",
			Help: "Total number of stock ledger movements grouped by type",
		}, []string{"type"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "sonica_checkout_duration_seconds",
			Help:    "Duration of checkout operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		deliveryTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "sonica_delivery_transitions_total",
			Help: "Total number of delivery status transitions grouped by status",
		}, []string{"status"}),
		versionConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sonica_version_conflicts_total",
			Help: "Total number of optimistic locking conflicts detected",
		}),
	}
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordOrderPaid увеличивает счётчик оплаченных заказов.
func (m *OrderMetrics) RecordOrderPaid() {
	if m == nil {
		return
	}
	m.ordersPaid.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	if m == nil {
		return
	}
	m.ordersCancelled.Inc()
}

// RecordOrderCompleted увеличивает счётчик завершённых заказов.
func (m *OrderMetrics) RecordOrderCompleted() {
	if m == nil {
		return
	}
	m.ordersCompleted.Inc()
}

// RecordReservationFailure увеличивает счётчик отказов резервирования.
func (m *OrderMetrics) RecordReservationFailure() {
	if m == nil {
		return
	}
	m.reservationFailures.Inc()
}

// RecordStockMovement увеличивает счётчик складских движений данного типа.
func (m *OrderMetrics) RecordStockMovement(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}

// RecordCheckoutDuration записывает длительность оформления заказа.
func (m *OrderMetrics) RecordCheckoutDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.checkoutDuration.Observe(d.Seconds())
}

// RecordDeliveryTransition увеличивает счётчик переходов доставки.
func (m *OrderMetrics) RecordDeliveryTransition(status string) {
	if m == nil {
		return
	}
	m.deliveryTransitions.WithLabelValues(status).Inc()
}

// RecordVersionConflict увеличивает счётчик конфликтов optimistic locking.
func (m *OrderMetrics) RecordVersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
