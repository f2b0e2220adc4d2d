package processors

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	models "log-stream/models"

	// External Packages
	"go.uber.org/zap"
)

const hookTimeout = 10 * time.Second

type DedupeStore interface {
	Seen(ctx context.Context, key string) bool
}

type DeadLetter interface {
	SendToDeadLetter(ctx context.Context, record models.Record, reason string) error
}

// LogBatchManager runs on the consumer's control goroutine around each
// dispatch: duplicates are filtered out before the worker pool sees the
// batch, failed results are routed to the dead-letter topic after.
type LogBatchManager struct {
	Logger *zap.Logger
	Dedupe DedupeStore // optional
	DLQ    DeadLetter  // optional
}

func NewLogBatchManager(logger *zap.Logger, dedupe DedupeStore, dlq DeadLetter) *LogBatchManager {
	return &LogBatchManager{Logger: logger, Dedupe: dedupe, DLQ: dlq}
}

// PreProcess drops records whose key was already observed. Keyless records
// always pass through.
func (m *LogBatchManager) PreProcess(records []models.Record) []models.Record {
	if m.Dedupe == nil {
		return records
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	kept := records[:0]
	dropped := 0
	for _, record := range records {
		if len(record.Key) > 0 && m.Dedupe.Seen(ctx, string(record.Key)) {
			dropped++
			continue
		}
		kept = append(kept, record)
	}

	if dropped > 0 {
		m.Logger.Info("dropped duplicate records", zap.Int("count", dropped))
	}
	return kept
}

// PostProcess sends each failed result's record to the dead-letter topic.
func (m *LogBatchManager) PostProcess(records []models.Record, results []models.ProcessRecordResult) []models.ProcessRecordResult {
	if m.DLQ == nil {
		return results
	}

	byID := make(map[string]models.Record, len(records))
	for _, record := range records {
		byID[record.ID()] = record
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	for _, result := range results {
		if result.Status {
			continue
		}
		record, ok := byID[result.MessageID]
		if !ok {
			continue
		}
		reason := "processing failed"
		if r, ok := result.Data["reason"].(string); ok && r != "" {
			reason = r
		}
		_ = m.DLQ.SendToDeadLetter(ctx, record, reason)
	}
	return results
}
