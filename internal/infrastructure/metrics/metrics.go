package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MessagingMetrics holds the collectors for the producer, the consumer and
// the delivered-message buffer.
type MessagingMetrics struct {
	// Producer
	MessagesProducedTotal      *prometheus.CounterVec
	MessagesProduceErrorsTotal *prometheus.CounterVec
	ProduceDuration            *prometheus.HistogramVec

	// Consumer
	MessagesConsumedTotal *prometheus.CounterVec
	ConsumerRunning       *prometheus.GaugeVec

	// Buffer
	BufferSize   prometheus.Gauge
	BufferPolled prometheus.Counter
	BufferClears prometheus.Counter

	// Await
	AwaitTimeoutsTotal prometheus.Counter
}

// NewMessagingMetrics registers the collectors on reg. Use a fresh
// prometheus.NewRegistry() per test to avoid duplicate registration.
func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	factory := promauto.With(reg)
	return &MessagingMetrics{
		MessagesProducedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_produced_total",
				Help: "Messages accepted by the message channel",
			},
			[]string{"topic"},
		),

		MessagesProduceErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_produce_errors_total",
				Help: "Messages the message channel refused to accept",
			},
			[]string{"topic"},
		),

		ProduceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "message_produce_duration_seconds",
				Help:    "Time spent handing a message to the message channel",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms, 2ms, 4ms...
			},
			[]string{"topic"},
		),

		MessagesConsumedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_consumed_total",
				Help: "Messages delivered to the consumer and appended to the buffer",
			},
			[]string{"topic", "group_id"},
		),

		ConsumerRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "consumer_running",
				Help: "1 while the consumer is subscribed, 0 otherwise",
			},
			[]string{"topic", "group_id"},
		),

		BufferSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "message_buffer_size",
				Help: "Messages currently held in the delivered-message buffer",
			},
		),

		BufferPolled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "message_buffer_polled_total",
				Help: "Messages removed from the buffer by pollers",
			},
		),

		BufferClears: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "message_buffer_clears_total",
				Help: "Times the buffer was cleared",
			},
		),

		AwaitTimeoutsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "await_timeouts_total",
				Help: "Waits on the buffer that ended in a timeout",
			},
		),
	}
}

// RecordProduced records a successful hand-off to the channel.
func (m *MessagingMetrics) RecordProduced(topic string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.MessagesProducedTotal.WithLabelValues(topic).Inc()
	m.ProduceDuration.WithLabelValues(topic).Observe(durationSeconds)
}

// RecordProduceError records a submission failure.
func (m *MessagingMetrics) RecordProduceError(topic string) {
	if m == nil {
		return
	}
	m.MessagesProduceErrorsTotal.WithLabelValues(topic).Inc()
}

// RecordConsumed records one appended delivery and the resulting buffer size.
func (m *MessagingMetrics) RecordConsumed(topic, groupID string, bufferSize int) {
	if m == nil {
		return
	}
	m.MessagesConsumedTotal.WithLabelValues(topic, groupID).Inc()
	m.BufferSize.Set(float64(bufferSize))
}

func (m *MessagingMetrics) SetConsumerRunning(topic, groupID string, running bool) {
	if m == nil {
		return
	}
	v := 0.0
	if running {
		v = 1
	}
	m.ConsumerRunning.WithLabelValues(topic, groupID).Set(v)
}

func (m *MessagingMetrics) RecordPolled(bufferSize int) {
	if m == nil {
		return
	}
	m.BufferPolled.Inc()
	m.BufferSize.Set(float64(bufferSize))
}

func (m *MessagingMetrics) RecordCleared() {
	if m == nil {
		return
	}
	m.BufferClears.Inc()
	m.BufferSize.Set(0)
}

func (m *MessagingMetrics) RecordAwaitTimeout() {
	if m == nil {
		return
	}
	m.AwaitTimeoutsTotal.Inc()
}
