// Package metrics exposes Prometheus metrics for queue routing, the
// background consumer and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zmy-farmer/queue-router/internal/mq"
)

const namespace = "queue_router"

// Metrics holds every collector on a private registry
type Metrics struct {
	registry *prometheus.Registry

	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	queueSwitches    *prometheus.CounterVec
	cachedQueues     *prometheus.GaugeVec
	consumed         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var _ mq.Observer = (*Metrics)(nil)

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages sent through the router, by queue type and result.",
		}, []string{"queue_type", "result"}),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received through the router, by queue type.",
		}, []string{"queue_type"}),
		queueSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_switches_total",
			Help:      "Current queue selections, by queue type.",
		}, []string{"queue_type"}),
		cachedQueues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_queues",
			Help:      "Queue services held by the router cache, by queue type.",
		}, []string{"queue_type"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumer_messages_total",
			Help:      "Messages handled by the background consumer, by message type and result.",
		}, []string{"message_type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.messagesSent,
		m.messagesReceived,
		m.queueSwitches,
		m.cachedQueues,
		m.consumed,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// MessageSent implements mq.Observer
func (m *Metrics) MessageSent(t mq.Type, ok bool) {
	m.messagesSent.WithLabelValues(t.String(), result(ok)).Inc()
}

// MessagesReceived implements mq.Observer
func (m *Metrics) MessagesReceived(t mq.Type, n int) {
	if n > 0 {
		m.messagesReceived.WithLabelValues(t.String()).Add(float64(n))
	}
}

// QueueSwitched implements mq.Observer
func (m *Metrics) QueueSwitched(t mq.Type, name string) {
	m.queueSwitches.WithLabelValues(t.String()).Inc()
}

// QueueCreated implements mq.Observer
func (m *Metrics) QueueCreated(t mq.Type, name string) {
	m.cachedQueues.WithLabelValues(t.String()).Inc()
}

// MessageConsumed records one message handled by the consumer
func (m *Metrics) MessageConsumed(messageType string, ok bool) {
	m.consumed.WithLabelValues(messageType, result(ok)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GinMiddleware records request counts and latency per matched route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
