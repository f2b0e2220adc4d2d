package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"time"

	// Local Packages
	models "log-stream/models"

	// External Packages
	"go.uber.org/zap"
)

// DLQProducer re-publishes failed records, enriched with failure metadata, to
// a fixed dead-letter topic. This is a capture point for out-of-band
// investigation; nothing consumes the dead-letter topic automatically.
type DLQProducer struct {
	producer *Producer
	topic    string
	metrics  *Metrics
	logger   *zap.Logger
}

func NewDLQProducer(producer *Producer, topic string, metrics *Metrics, logger *zap.Logger) *DLQProducer {
	return &DLQProducer{producer: producer, topic: topic, metrics: metrics, logger: logger}
}

// SendToDeadLetter wraps the record in an envelope and publishes it.
// dlq_messages counts every attempt, whatever the publish outcome.
func (d *DLQProducer) SendToDeadLetter(ctx context.Context, record models.Record, reason string) error {
	d.metrics.Inc(MetricDLQMessages)

	env := models.DLQEnvelope{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Key:       record.Key,
		Value:     record.Value,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return d.producer.capture.capture("dlq_marshal", err)
	}

	d.logger.Warn("sending record to dead letter topic",
		zap.String("record", record.ID()), zap.String("reason", reason))
	return d.producer.Publish(ctx, d.topic, payload, record.Key)
}
