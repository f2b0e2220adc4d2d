package processors

import (
	// Go Internal Packages
	"context"
	"fmt"
	"testing"

	// Local Packages
	models "log-stream/models"

	// External Packages
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLogRepo struct {
	inserted  []models.MongoLogEntry
	insertErr error
}

func (f *fakeLogRepo) InsertEntry(ctx context.Context, entry models.MongoLogEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, entry)
	return nil
}

func logRecord(value string) models.Record {
	return models.Record{
		Topic:     "agent-logs",
		Partition: 0,
		Offset:    7,
		Key:       []byte("log-1"),
		Value:     []byte(value),
	}
}

func TestLogProcessor(t *testing.T) {
	t.Run("will store a valid entry and succeed", func(t *testing.T) {
		repo := &fakeLogRepo{}
		p := NewLogProcessor(zap.NewNop(), repo)
		require.NoError(t, p.Setup())

		result := p.ProcessOne(logRecord(`{"log_id":"log-1","agent_id":"a1","level":"info","message":"ok"}`))
		require.True(t, result.Status)
		require.Equal(t, "agent-logs-0-7", result.MessageID)
		require.Len(t, repo.inserted, 1)
		require.Equal(t, "log-1", repo.inserted[0].LogID)
	})

	t.Run("will fail a record that does not decode", func(t *testing.T) {
		repo := &fakeLogRepo{}
		p := NewLogProcessor(zap.NewNop(), repo)

		result := p.ProcessOne(logRecord(`not json`))
		require.False(t, result.Status)
		require.Equal(t, "unmarshal failed", result.Data["reason"])
		require.Empty(t, repo.inserted)
	})

	t.Run("will fail a record the repository rejects", func(t *testing.T) {
		repo := &fakeLogRepo{insertErr: fmt.Errorf("duplicate key")}
		p := NewLogProcessor(zap.NewNop(), repo)

		result := p.ProcessOne(logRecord(`{"log_id":"log-1"}`))
		require.False(t, result.Status)
		require.Equal(t, "insert failed", result.Data["reason"])
	})
}

func TestRegistry(t *testing.T) {
	t.Run("will build the registered processor", func(t *testing.T) {
		registry := NewRegistry()
		p, err := registry.Build("log", zap.NewNop(), &fakeLogRepo{})
		require.NoError(t, err)
		require.NotNil(t, p)
	})

	t.Run("will reject an unknown tag", func(t *testing.T) {
		registry := NewRegistry()
		_, err := registry.Build("metrics", zap.NewNop(), &fakeLogRepo{})
		require.Error(t, err)
	})
}
