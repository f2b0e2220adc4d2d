package models

import (
	// Go Internal Packages
	"fmt"
	"time"
)

// Record is one consumed message, immutable once delivered by the broker.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// ID returns the record's broker coordinates, unique within a cluster.
func (r Record) ID() string {
	return fmt.Sprintf("%s-%d-%d", r.Topic, r.Partition, r.Offset)
}

// ProcessRecordResult is produced once per input record by the worker pool.
type ProcessRecordResult struct {
	MessageID string
	Status    bool
	Data      map[string]any
}

// DLQEnvelope wraps a failed record for the dead-letter topic. Written once,
// never mutated; there is no automatic replay of the dead-letter topic.
// Key and Value stay raw bytes (base64 on the wire) so binary payloads
// survive the round trip untouched.
type DLQEnvelope struct {
	Topic     string    `json:"topic"`
	Partition int32     `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       []byte    `json:"key,omitempty"`
	Value     []byte    `json:"value,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
