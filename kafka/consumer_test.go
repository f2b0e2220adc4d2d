package kafka

import (
	// Go Internal Packages
	"context"
	"sync"
	"testing"
	"time"

	// Local Packages
	models "log-stream/models"

	// External Packages
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// fakeConsumerClient replays scripted fetches, one per poll, then cancels the
// poll context to stop the loop.
type fakeConsumerClient struct {
	mu        sync.Mutex
	fetches   []kgo.Fetches
	commits   int
	committed [][]*kgo.Record
	closes    int
	cancel    context.CancelFunc
}

func (f *fakeConsumerClient) PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fetches) == 0 {
		if f.cancel != nil {
			f.cancel()
		}
		return nil
	}
	next := f.fetches[0]
	f.fetches = f.fetches[1:]
	return next
}

func (f *fakeConsumerClient) CommitRecords(ctx context.Context, rs ...*kgo.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, append([]*kgo.Record(nil), rs...))
	return nil
}

func (f *fakeConsumerClient) CommitUncommittedOffsets(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

func (f *fakeConsumerClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeConsumerClient) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func (f *fakeConsumerClient) committedRecords() [][]*kgo.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.committed
}

type fakeBatchProcessor struct {
	mu      sync.Mutex
	batches [][]models.Record
}

func (p *fakeBatchProcessor) ProcessBatch(ctx context.Context, records []models.Record, partition string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := append([]models.Record(nil), records...)
	p.batches = append(p.batches, batch)
	return len(records)
}

func (p *fakeBatchProcessor) dispatched() [][]models.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batches
}

func fetchWith(topic string, partition int32, recs ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic:      topic,
			Partitions: []kgo.FetchPartition{{Partition: partition, Records: recs}},
		}},
	}}
}

func fetchErr(topic string, partition int32, err error) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic:      topic,
			Partitions: []kgo.FetchPartition{{Partition: partition, Err: err}},
		}},
	}}
}

func rec(key string, offset int64) *kgo.Record {
	return &kgo.Record{
		Topic:     "agent-logs",
		Partition: 0,
		Offset:    offset,
		Key:       []byte(key),
		Value:     []byte("{}"),
		Timestamp: time.Now(),
	}
}

func recordKeys(recs []*kgo.Record) []string {
	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = string(r.Key)
	}
	return keys
}

func batchKeys(batch []models.Record) []string {
	keys := make([]string, len(batch))
	for i, r := range batch {
		keys[i] = string(r.Key)
	}
	return keys
}

func runConsumer(t *testing.T, conf *ConsumerConfig, client *fakeConsumerClient, processor RecordsProcessor, metrics *Metrics) error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.cancel = cancel

	c := newConsumer(client, conf, processor, metrics, zap.NewNop())
	return c.Poll(ctx)
}

func TestConsumerPoll(t *testing.T) {
	t.Run("will dispatch full batches and keep the partial remainder pending", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchWith("agent-logs", 0, rec("A", 0)),
			fetchWith("agent-logs", 0, rec("B", 1)),
			fetchWith("agent-logs", 0, rec("C", 2)),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          2,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Hour,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		batches := processor.dispatched()
		require.Len(t, batches, 1)
		require.Equal(t, []string{"A", "B"}, batchKeys(batches[0]))
		require.Equal(t, int64(3), metrics.Get(MetricMessagesConsumed))
		require.Equal(t, int64(1), metrics.Get(MetricBatchesProcessed))
	})

	t.Run("will dispatch the buffered remainder once it fills", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchWith("agent-logs", 0, rec("A", 0)),
			fetchWith("agent-logs", 0, rec("B", 1)),
			fetchWith("agent-logs", 0, rec("C", 2)),
			fetchWith("agent-logs", 0, rec("D", 3)),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          2,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Hour,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		batches := processor.dispatched()
		require.Len(t, batches, 2)
		require.Equal(t, []string{"A", "B"}, batchKeys(batches[0]))
		require.Equal(t, []string{"C", "D"}, batchKeys(batches[1]))
	})

	t.Run("will chunk an oversized poll into exact batch sizes", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchWith("agent-logs", 0, rec("A", 0), rec("B", 1), rec("C", 2), rec("D", 3), rec("E", 4)),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          2,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Hour,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		batches := processor.dispatched()
		require.Len(t, batches, 2)
		require.Equal(t, []string{"A", "B"}, batchKeys(batches[0]))
		require.Equal(t, []string{"C", "D"}, batchKeys(batches[1]))
		require.Equal(t, int64(5), metrics.Get(MetricMessagesConsumed))
	})

	t.Run("will checkpoint on the timer with zero pending batch", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			{}, {}, {},
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          10,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Nanosecond,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		require.Empty(t, processor.dispatched())
		require.GreaterOrEqual(t, client.commitCount(), 3)
	})

	t.Run("will commit only after dispatch in dispatch mode", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchWith("agent-logs", 0, rec("A", 0), rec("B", 1)),
			fetchWith("agent-logs", 0, rec("C", 2)),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          2,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Nanosecond,
			CommitMode:         CommitOnDispatch,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		require.Len(t, processor.dispatched(), 1)
		require.Equal(t, 0, client.commitCount())

		commits := client.committedRecords()
		require.Len(t, commits, 1)
		require.Equal(t, []string{"A", "B"}, recordKeys(commits[0]))
	})

	t.Run("will not commit the pending remainder in dispatch mode", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchWith("agent-logs", 0, rec("A", 0), rec("B", 1), rec("C", 2)),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          2,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Nanosecond,
			CommitMode:         CommitOnDispatch,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		// C never filled a batch; no commit may cover it.
		require.Equal(t, 0, client.commitCount())
		commits := client.committedRecords()
		require.Len(t, commits, 1)
		require.Equal(t, []string{"A", "B"}, recordKeys(commits[0]))
		for _, commit := range commits {
			require.NotContains(t, recordKeys(commit), "C")
		}
	})

	t.Run("will count and skip broker-reported fetch errors", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchErr("agent-logs", 0, kerr.UnknownTopicOrPartition),
			fetchWith("agent-logs", 0, rec("A", 0)),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          1,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Hour,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		require.Equal(t, int64(1), metrics.Get(MetricConsumerErrors))
		require.Len(t, processor.dispatched(), 1)
	})

	t.Run("will not count an expired poll timeout as a consumer error", func(t *testing.T) {
		client := &fakeConsumerClient{fetches: []kgo.Fetches{
			fetchErr("agent-logs", 0, context.DeadlineExceeded),
		}}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          1,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Hour,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, int64(0), metrics.Get(MetricConsumerErrors))
	})

	t.Run("will close the client exactly once", func(t *testing.T) {
		client := &fakeConsumerClient{}
		processor := &fakeBatchProcessor{}
		metrics := NewMetrics()

		conf := &ConsumerConfig{
			BatchSize:          1,
			PollTimeout:        10 * time.Millisecond,
			CheckpointInterval: time.Hour,
			CommitMode:         CommitInterval,
		}

		err := runConsumer(t, conf, client, processor, metrics)
		require.ErrorIs(t, err, context.Canceled)

		// Poll already closed on exit; further calls are no-ops.
		c := newConsumer(client, conf, processor, metrics, zap.NewNop())
		c.Close()
		c.Close()
		require.Equal(t, 2, client.closes)
	})
}

func TestApplyConsumerDefaults(t *testing.T) {
	conf := &ConsumerConfig{}
	applyConsumerDefaults(conf)

	require.Equal(t, "earliest", conf.OffsetReset)
	require.Equal(t, time.Second, conf.PollTimeout)
	require.Equal(t, 100, conf.BatchSize)
	require.Equal(t, 60*time.Second, conf.CheckpointInterval)
	require.Equal(t, CommitInterval, conf.CommitMode)
}
