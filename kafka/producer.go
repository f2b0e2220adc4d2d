package kafka

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "log-stream/errors"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers []string
	Policy  ErrorPolicy
}

// producerClient is the slice of the broker client the producer needs.
type producerClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// Producer publishes opaque payloads to a topic. Every publish flushes
// synchronously before returning, trading throughput for delivery-confirmation
// simplicity; delivery outcome is still reported through the async callback
// counters, so a non-error return does not guarantee delivery under the
// absorb policy.
type Producer struct {
	client  producerClient
	metrics *Metrics
	logger  *zap.Logger
	capture errorCapture
}

// NewProducer connects to the brokers and returns a producer. The kprom
// metrics hooks are optional.
func NewProducer(conf *ProducerConfig, metrics *Metrics, prom *kprom.Metrics, logger *zap.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
	}
	if prom != nil {
		opts = append(opts, kgo.WithHooks(prom))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return newProducer(client, conf, metrics, logger), nil
}

func newProducer(client producerClient, conf *ProducerConfig, metrics *Metrics, logger *zap.Logger) *Producer {
	return &Producer{
		client:  client,
		metrics: metrics,
		logger:  logger,
		capture: errorCapture{policy: conf.Policy, metrics: metrics, logger: logger},
	}
}

// Publish enqueues a single record and flushes. Key may be nil.
func (p *Producer) Publish(ctx context.Context, topic string, value, key []byte) error {
	if topic == "" {
		return p.capture.capture("publish", errors.EmptyParamErr("topic"))
	}

	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	p.client.Produce(ctx, rec, p.deliveryReport)
	p.metrics.Inc(MetricMessagesProduced)

	if err := p.client.Flush(ctx); err != nil {
		return p.capture.capture("publish", err)
	}
	return nil
}

// PublishBatch enqueues all values then flushes once. keyFn derives the key
// for each value; nil keyFn publishes keyless records.
func (p *Producer) PublishBatch(ctx context.Context, topic string, values [][]byte, keyFn func(value []byte) []byte) error {
	if topic == "" {
		return p.capture.capture("publish_batch", errors.EmptyParamErr("topic"))
	}

	for _, value := range values {
		var key []byte
		if keyFn != nil {
			key = keyFn(value)
		}
		rec := &kgo.Record{Topic: topic, Key: key, Value: value}
		p.client.Produce(ctx, rec, p.deliveryReport)
		p.metrics.Inc(MetricMessagesProduced)
	}

	if err := p.client.Flush(ctx); err != nil {
		return p.capture.capture("publish_batch", err)
	}
	return nil
}

// deliveryReport is invoked by the client once per record; it only touches
// the logger and counters and never panics into the publish call.
func (p *Producer) deliveryReport(rec *kgo.Record, err error) {
	if err != nil {
		p.logger.Error("delivery failed",
			zap.String("topic", rec.Topic), zap.ByteString("key", rec.Key), zap.Error(err))
		p.metrics.Inc(MetricDeliveryErrors)
		return
	}
	p.logger.Debug("record delivered",
		zap.String("topic", rec.Topic), zap.Int32("partition", rec.Partition), zap.Int64("offset", rec.Offset))
	p.metrics.Inc(MetricMessagesDelivered)
}

// Close flushes pending records and releases the client.
func (p *Producer) Close() {
	_ = p.client.Flush(context.Background())
	p.client.Close()
	p.logger.Info("kafka producer closed")
}
