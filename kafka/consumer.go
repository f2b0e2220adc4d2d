package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"sync"
	"time"

	// Local Packages
	models "log-stream/models"
	utils "log-stream/utils"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// CommitMode selects when offsets are checkpointed.
type CommitMode string

const (
	// CommitInterval commits on a wall-clock timer, independent of batch
	// boundaries. Offsets for records still in flight may be committed,
	// which risks losing them on crash (at-most-once).
	CommitInterval CommitMode = "interval"

	// CommitOnDispatch commits the dispatched records' offsets right after
	// each batch goes through the worker pool; the pending remainder stays
	// uncommitted until its own dispatch (at-least-once).
	CommitOnDispatch CommitMode = "dispatch"
)

const (
	defaultPollTimeout        = time.Second
	defaultBatchSize          = 100
	defaultCheckpointInterval = 60 * time.Second
)

type ConsumerConfig struct {
	Brokers            []string
	GroupID            string
	Topics             []string
	OffsetReset        string // earliest or latest
	PollTimeout        time.Duration
	BatchSize          int
	CheckpointInterval time.Duration
	CommitMode         CommitMode
	DispatchTimeout    time.Duration // 0 disables the per-batch deadline
	Policy             ErrorPolicy
}

// consumerClient is the slice of the broker client the poll loop needs.
type consumerClient interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	CommitUncommittedOffsets(ctx context.Context) error
	Close()
}

// RecordsProcessor receives each full batch; the returned count is the number
// of records that processed successfully.
type RecordsProcessor interface {
	ProcessBatch(ctx context.Context, records []models.Record, partition string) int
}

// Consumer owns the broker connection and the current batch. Batch size and
// commit timing are fixed for its lifetime.
type Consumer struct {
	client    consumerClient
	conf      *ConsumerConfig
	processor RecordsProcessor
	metrics   *Metrics
	logger    *zap.Logger
	capture   errorCapture

	// batch and raw track the same pending records; raw keeps the broker
	// records so a dispatch-mode commit can cover exactly the dispatched
	// chunk and nothing still buffered.
	batch          []models.Record
	raw            []*kgo.Record
	lastCheckpoint time.Time
	closeOnce      sync.Once
}

// NewConsumer connects and subscribes to the configured topics. Subscription
// failure here is fatal and propagates; everything after construction goes
// through the error-capture policy instead.
func NewConsumer(conf *ConsumerConfig, processor RecordsProcessor, metrics *Metrics, prom *kprom.Metrics, logger *zap.Logger) (*Consumer, error) {
	applyConsumerDefaults(conf)

	resetOffset := kgo.NewOffset().AtStart()
	if conf.OffsetReset == "latest" {
		resetOffset = kgo.NewOffset().AtEnd()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.ConsumerGroup(conf.GroupID),
		kgo.ConsumeTopics(conf.Topics...),
		kgo.ConsumeResetOffset(resetOffset),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	}
	if prom != nil {
		opts = append(opts, kgo.WithHooks(prom))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil || client == nil {
		return nil, err
	}
	return newConsumer(client, conf, processor, metrics, logger), nil
}

func newConsumer(client consumerClient, conf *ConsumerConfig, processor RecordsProcessor, metrics *Metrics, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:    client,
		conf:      conf,
		processor: processor,
		metrics:   metrics,
		logger:    logger,
		capture:   errorCapture{policy: conf.Policy, metrics: metrics, logger: logger},
	}
}

func applyConsumerDefaults(conf *ConsumerConfig) {
	if conf.OffsetReset == "" {
		conf.OffsetReset = "earliest"
	}
	if conf.PollTimeout <= 0 {
		conf.PollTimeout = defaultPollTimeout
	}
	if conf.BatchSize < 1 {
		conf.BatchSize = defaultBatchSize
	}
	if conf.CheckpointInterval <= 0 {
		conf.CheckpointInterval = defaultCheckpointInterval
	}
	if conf.CommitMode == "" {
		conf.CommitMode = CommitInterval
	}
}

// Poll runs the poll → batch → dispatch → checkpoint loop until the context
// is cancelled or the client closes. A trailing partial batch stays pending
// across iterations until it fills.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Close()

	c.lastCheckpoint = time.Now()

	for {
		if ctx.Err() != nil {
			c.logger.Warn("polling stopped: context canceled")
			return ctx.Err()
		}

		// Bounded poll so an idle broker still yields control for the
		// checkpoint check every poll timeout.
		pollCtx, cancel := context.WithTimeout(ctx, c.conf.PollTimeout)
		fetches := c.client.PollRecords(pollCtx, c.conf.BatchSize)
		cancel()

		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errors.Is(fetches.Err0(), context.Canceled) {
			return context.Canceled
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			// An expired poll timeout surfaces here too and is not a
			// broker-reported failure.
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("fetch error",
				zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
			c.metrics.Inc(MetricConsumerErrors)
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.batch = append(c.batch, models.Record{
				Topic:     r.Topic,
				Partition: r.Partition,
				Offset:    r.Offset,
				Key:       r.Key,
				Value:     r.Value,
				Timestamp: r.Timestamp,
			})
			c.raw = append(c.raw, r)
			c.metrics.Inc(MetricMessagesConsumed)
		})

		for len(c.batch) >= c.conf.BatchSize {
			c.dispatch(ctx)
		}

		c.maybeCheckpoint(ctx)
	}
}

// dispatch hands exactly one batch-size chunk to the processor and drops it
// from the pending buffer unconditionally, partial worker failure included.
func (c *Consumer) dispatch(ctx context.Context) {
	batch := c.batch[:c.conf.BatchSize]
	dispatchedRaw := c.raw[:c.conf.BatchSize]
	c.batch = append([]models.Record(nil), c.batch[c.conf.BatchSize:]...)
	c.raw = append([]*kgo.Record(nil), c.raw[c.conf.BatchSize:]...)

	dispatchCtx := ctx
	if c.conf.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, c.conf.DispatchTimeout)
		defer cancel()
	}

	partitions := utils.JoinInt32Slice(batchPartitions(batch))
	c.processor.ProcessBatch(dispatchCtx, batch, partitions)
	c.metrics.Inc(MetricBatchesProcessed)

	if c.conf.CommitMode != CommitOnDispatch {
		return
	}

	// Commit covers exactly the records handed to the processor; anything
	// still buffered stays uncommitted until its own dispatch.
	if err := c.client.CommitRecords(ctx, dispatchedRaw...); err != nil {
		_ = c.capture.capture("commit", err)
	} else {
		c.logger.Debug("offsets committed", zap.Int("records", len(dispatchedRaw)))
	}
}

// maybeCheckpoint is evaluated once per poll iteration, after any dispatch.
// Timer-driven commits apply to interval mode only; they commit the broker's
// full consumed position, pending batch included.
func (c *Consumer) maybeCheckpoint(ctx context.Context) {
	if c.conf.CommitMode == CommitOnDispatch {
		return
	}
	if time.Since(c.lastCheckpoint) <= c.conf.CheckpointInterval {
		return
	}

	if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
		_ = c.capture.capture("commit", err)
	} else {
		c.logger.Debug("offsets committed", zap.Int("pending", len(c.batch)))
	}
	c.lastCheckpoint = time.Now()
}

// Close releases the broker connection. Safe to call from any state and more
// than once.
func (c *Consumer) Close() {
	c.closeOnce.Do(func() {
		c.client.Close()
		c.logger.Info("kafka consumer closed")
	})
}

func batchPartitions(records []models.Record) []int32 {
	seen := make(map[int32]struct{}, 4)
	var parts []int32
	for _, r := range records {
		if _, ok := seen[r.Partition]; ok {
			continue
		}
		seen[r.Partition] = struct{}{}
		parts = append(parts, r.Partition)
	}
	return parts
}
