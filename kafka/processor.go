package kafka

import (
	// Go Internal Packages
	"context"
	"fmt"
	"sync"
	"time"

	// Local Packages
	models "log-stream/models"

	// External Packages
	"go.uber.org/zap"
)

// EventProcessor is the per-record handler run by pool workers. Setup runs
// once per worker at pool creation; ProcessOne must surface failure through
// the result's Status flag rather than panicking, though a panic is still
// contained to that record.
type EventProcessor interface {
	Setup() error
	ProcessOne(record models.Record) models.ProcessRecordResult
}

// BatchManager is an optional pair of hooks around a batch dispatch. Both run
// synchronously on the consumer's control goroutine and sit on the critical
// polling path, so they must not block indefinitely.
type BatchManager interface {
	PreProcess(records []models.Record) []models.Record
	PostProcess(records []models.Record, results []models.ProcessRecordResult) []models.ProcessRecordResult
}

type poolJob struct {
	record  models.Record
	results chan<- models.ProcessRecordResult
}

// RecordProcessor fans a batch out over a fixed pool of long-lived workers.
// Result ordering does not match input order; callers needing order must
// re-sort by a record-intrinsic key.
type RecordProcessor struct {
	processor EventProcessor
	manager   BatchManager
	logger    *zap.Logger

	jobs chan poolJob
	wg   sync.WaitGroup
}

// NewRecordProcessor runs the handler's Setup once per worker, then spawns
// workerCount workers. A Setup failure aborts construction; a worker never
// consumes jobs without a completed Setup. manager may be nil.
func NewRecordProcessor(processor EventProcessor, workerCount int, manager BatchManager, logger *zap.Logger) (*RecordProcessor, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &RecordProcessor{
		processor: processor,
		manager:   manager,
		logger:    logger,
		jobs:      make(chan poolJob),
	}

	for i := 0; i < workerCount; i++ {
		if err := p.processor.Setup(); err != nil {
			return nil, fmt.Errorf("worker %d setup: %w", i, err)
		}
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.runWorker()
	}
	return p, nil
}

func (p *RecordProcessor) runWorker() {
	defer p.wg.Done()

	for j := range p.jobs {
		j.results <- p.processOne(j.record)
	}
}

// processOne isolates a panicking handler to the record that triggered it.
func (p *RecordProcessor) processOne(record models.Record) (res models.ProcessRecordResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("record handler panicked",
				zap.String("record", record.ID()), zap.Any("panic", r))
			res = models.ProcessRecordResult{MessageID: record.ID(), Status: false}
		}
	}()
	return p.processor.ProcessOne(record)
}

// ProcessBatch maps the handler over all records across the pool and returns
// the number of successful results. A cancelled or expired context abandons
// unfinished records; the per-batch results channel is buffered so stragglers
// never block a worker.
func (p *RecordProcessor) ProcessBatch(ctx context.Context, records []models.Record, partition string) int {
	start := time.Now()
	p.logger.Info("processing batch",
		zap.Int("records", len(records)), zap.String("partitions", partition))

	if p.manager != nil {
		records = p.manager.PreProcess(records)
	}

	resCh := make(chan models.ProcessRecordResult, len(records))
	sent := 0
	for _, rec := range records {
		select {
		case p.jobs <- poolJob{record: rec, results: resCh}:
			sent++
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	results := make([]models.ProcessRecordResult, 0, sent)
	for i := 0; i < sent; i++ {
		select {
		case r := <-resCh:
			results = append(results, r)
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			p.logger.Warn("batch dispatch cut short",
				zap.Int("collected", len(results)), zap.Int("dispatched", sent))
			break
		}
	}

	if p.manager != nil {
		results = p.manager.PostProcess(records, results)
	}

	succeeded := 0
	for _, r := range results {
		if r.Status {
			succeeded++
		}
	}

	p.logger.Info("batch processed",
		zap.Int("succeeded", succeeded),
		zap.Int("records", len(records)),
		zap.Duration("took", time.Since(start)))
	return succeeded
}

// Close stops the workers after in-flight jobs finish.
func (p *RecordProcessor) Close() {
	close(p.jobs)
	p.wg.Wait()
}
