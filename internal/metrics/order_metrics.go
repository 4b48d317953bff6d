package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated prometheus.Counter
	statusUpdates *prometheus.CounterVec

	// Уведомления: исход и длительность
	notificationAttempts *prometheus.CounterVec
	notificationDuration prometheus.Histogram

	// События, опубликованные в брокер
	eventsPublished *prometheus.CounterVec

	// Gauge для уведомлений в полёте
	activeNotifications prometheus.Gauge
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
			Name: "retailx_orders_created_total",
			Help: "Total number of orders created",
		}),
		statusUpdates: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "retailx_order_status_updates_total",
			Help: "Total number of order status updates grouped by new status",
		}, []string{"status"}),
		notificationAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "retailx_order_notification_attempts_total",
			Help: "Total number of notification dispatch attempts grouped by result",
		}, []string{"result"}),
		notificationDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "retailx_order_notification_duration_seconds",
			Help:    "Duration of notification dispatch attempts in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "retailx_order_events_published_total",
			Help: "Total number of order events published to the broker grouped by result",
		}, []string{"result"}),
		activeNotifications: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "retailx_order_active_notifications",
			Help: "Number of notification dispatches currently in flight",
		}),
	}
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
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

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordStatusUpdate увеличивает счётчик обновлений статуса.
func (m *OrderMetrics) RecordStatusUpdate(status string) {
	m.statusUpdates.WithLabelValues(status).Inc()
}

// RecordNotificationAttempt фиксирует исход и длительность попытки уведомления.
func (m *OrderMetrics) RecordNotificationAttempt(result string, duration time.Duration) {
	m.notificationAttempts.WithLabelValues(result).Inc()
	m.notificationDuration.Observe(duration.Seconds())
}

// RecordEventPublished фиксирует исход публикации события в брокер.
func (m *OrderMetrics) RecordEventPublished(result string) {
	m.eventsPublished.WithLabelValues(result).Inc()
}

// RecordNotificationInFlightStarted увеличивает количество активных уведомлений.
func (m *OrderMetrics) RecordNotificationInFlightStarted() {
	m.activeNotifications.Inc()
}

// RecordNotificationInFlightFinished уменьшает количество активных уведомлений.
func (m *OrderMetrics) RecordNotificationInFlightFinished() {
	m.activeNotifications.Dec()
}
