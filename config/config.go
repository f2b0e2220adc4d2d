package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "log-stream/errors"
)

var DefaultConfig = []byte(`
application: "log-stream"

logger:
  level: "debug"

is_prod_mode: false

mongo:
  uri: "mongodb://localhost:27017"

redis:
  uri: "localhost:6379"
  password: ""

kafka:
  brokers:
    - "localhost:9092"
  group_id: "log-stream"
  topics:
    - "agent-logs"
  offset_reset: "earliest"
  poll_timeout: "1s"
  batch_size: 100
  worker_count: 1
  enable_auto_commit: true
  checkpoint_interval: "60s"
  commit_mode: "interval"
  dispatch_timeout: "0s"
  dlq_topic: "agent-logs-dlq"
`)

type Config struct {
	Application string `koanf:"application"`
	Logger      Logger `koanf:"logger"`
	IsProdMode  bool   `koanf:"is_prod_mode"`
	Mongo       Mongo  `koanf:"mongo"`
	Redis       Redis  `koanf:"redis"`
	Kafka       Kafka  `koanf:"kafka"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Mongo struct {
	URI string `koanf:"uri"`
}

type Redis struct {
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
}

type Kafka struct {
	Brokers     []string `koanf:"brokers"`
	GroupID     string   `koanf:"group_id"`
	Topics      []string `koanf:"topics"`
	OffsetReset string   `koanf:"offset_reset"`

	PollTimeout time.Duration `koanf:"poll_timeout"`
	BatchSize   int           `koanf:"batch_size"`
	WorkerCount int           `koanf:"worker_count"`

	// EnableAutoCommit is informational only, kept for compatibility with
	// deployed config files. Offsets are always committed explicitly by the
	// consumer loop; broker-side auto commit stays disabled either way.
	EnableAutoCommit bool `koanf:"enable_auto_commit"`

	// CheckpointInterval drives timer-based offset commits. With commit_mode
	// "interval" a commit can land while a batch is still being processed, so
	// a crash between commit and batch completion loses those records
	// (at-most-once). Use commit_mode "dispatch" to commit only after a batch
	// has gone through the worker pool (at-least-once).
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
	CommitMode         string        `koanf:"commit_mode"`

	// DispatchTimeout bounds a single batch dispatch; 0 disables the bound
	// and a stuck worker can then stall the poll loop.
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`

	DLQTopic string `koanf:"dlq_topic"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	if c.Kafka.GroupID == "" {
		ve.Add("kafka.group_id", "cannot be empty")
	}
	if len(c.Kafka.Topics) == 0 {
		ve.Add("kafka.topics", "cannot be empty")
	}
	if c.Kafka.OffsetReset != "earliest" && c.Kafka.OffsetReset != "latest" {
		ve.Add("kafka.offset_reset", "must be earliest or latest")
	}
	if c.Kafka.PollTimeout <= 0 {
		ve.Add("kafka.poll_timeout", "must be positive")
	}
	if c.Kafka.BatchSize < 1 {
		ve.Add("kafka.batch_size", "must be at least 1")
	}
	if c.Kafka.WorkerCount < 1 {
		ve.Add("kafka.worker_count", "must be at least 1")
	}
	if c.Kafka.CheckpointInterval <= 0 {
		ve.Add("kafka.checkpoint_interval", "must be positive")
	}
	if c.Kafka.CommitMode != "interval" && c.Kafka.CommitMode != "dispatch" {
		ve.Add("kafka.commit_mode", "must be interval or dispatch")
	}
	if c.Kafka.DispatchTimeout < 0 {
		ve.Add("kafka.dispatch_timeout", "cannot be negative")
	}
	if c.Kafka.DLQTopic == "" {
		ve.Add("kafka.dlq_topic", "cannot be empty")
	}

	return ve.Err()
}
