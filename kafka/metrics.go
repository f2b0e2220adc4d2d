package kafka

import (
	// Go Internal Packages
	"sync"
)

// Counter names recognized by the metrics registry.
const (
	MetricMessagesProduced  = "messages_produced"
	MetricMessagesDelivered = "messages_delivered"
	MetricDeliveryErrors    = "delivery_errors"
	MetricMessagesConsumed  = "messages_consumed"
	MetricConsumerErrors    = "consumer_errors"
	MetricBatchesProcessed  = "batches_processed"
	MetricDLQMessages       = "dlq_messages"
	MetricKafkaErrors       = "kafka_errors"
	MetricGeneralErrors     = "general_errors"
)

// Metrics is a process-local counter registry. Counters only grow for the
// registry's lifetime; a restart is the only reset. Safe for concurrent use
// from pool workers. Broker-level metrics are covered separately by the
// kprom hooks attached to the client.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

// Inc increments the named counter by one.
func (m *Metrics) Inc(key string) {
	m.Add(key, 1)
}

// Add increments the named counter by delta.
func (m *Metrics) Add(key string, delta int64) {
	m.mu.Lock()
	m.counters[key] += delta
	m.mu.Unlock()
}

// Get returns the current value of the named counter, zero if never set.
func (m *Metrics) Get(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		snap[k] = v
	}
	return snap
}
