package processors

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

const insertTimeout = 5 * time.Second

type LogRepository interface {
	InsertEntry(ctx context.Context, entry models.MongoLogEntry) error
}

// LogProcessor is the per-record handler run inside the worker pool: decode
// the log entry, store it, report the outcome through the result status.
type LogProcessor struct {
	Logger *zap.Logger
	Repo   LogRepository
}

func NewLogProcessor(logger *zap.Logger, repo LogRepository) *LogProcessor {
	return &LogProcessor{Logger: logger, Repo: repo}
}

// Setup runs once per pool worker.
func (p *LogProcessor) Setup() error {
	p.Logger.Debug("log processor worker ready")
	return nil
}

func (p *LogProcessor) ProcessOne(record models.Record) models.ProcessRecordResult {
	var entry models.LogEntry
	if err := json.Unmarshal(record.Value, &entry); err != nil {
		p.Logger.Error("failed to unmarshal log entry", zap.Error(err))
		return models.ProcessRecordResult{
			MessageID: record.ID(),
			Status:    false,
			Data:      map[string]any{"reason": "unmarshal failed"},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := p.Repo.InsertEntry(ctx, entry.Transform()); err != nil {
		p.Logger.Error("failed to insert log entry",
			zap.String("log_id", entry.LogID), zap.Error(err))
		return models.ProcessRecordResult{
			MessageID: record.ID(),
			Status:    false,
			Data:      map[string]any{"reason": "insert failed"},
		}
	}

	return models.ProcessRecordResult{
		MessageID: record.ID(),
		Status:    true,
		Data:      map[string]any{"log_id": entry.LogID},
	}
}
