package main

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	config "log-stream/config"
	helpers "log-stream/helpers"
	kafka "log-stream/kafka"
	models "log-stream/models"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"go.uber.org/zap"
)

var (
	configPath = kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	topic      = kingpin.Flag("topic", "Topic to publish to").Short('t').Default("agent-logs").String()
	count      = kingpin.Flag("count", "Number of log entries to publish").Short('n').Default("1").Int()
	message    = kingpin.Flag("message", "Log message body").Short('m').Default("hello from log-producer").String()
)

// LoadConfig loads the default configuration and overrides it with the config
// file specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func sampleEntries(n int, msg string) [][]byte {
	hostname, _ := os.Hostname()
	entries := make([][]byte, n)
	for i := 0; i < n; i++ {
		entry := models.LogEntry{
			LogID:     fmt.Sprintf("%d-%d", time.Now().UnixNano(), i),
			AgentID:   "log-producer",
			Service:   "log-producer",
			Level:     "info",
			Message:   msg,
			Source:    "cli",
			Hostname:  hostname,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		entries[i], _ = json.Marshal(entry)
	}
	return entries
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(k.String("logger.level")))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = "log-producer"
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := kafka.NewMetrics()
	conf := &kafka.ProducerConfig{Brokers: appKonf.Kafka.Brokers}

	producer, err := kafka.NewProducer(conf, metrics, nil, logger)
	if err != nil {
		logger.Fatal("cannot create producer", zap.Error(err))
	}
	defer producer.Close()

	entries := sampleEntries(*count, *message)
	keyFn := func(value []byte) []byte {
		var entry models.LogEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return nil
		}
		return []byte(entry.LogID)
	}

	if err := producer.PublishBatch(ctx, *topic, entries, keyFn); err != nil {
		logger.Fatal("cannot publish log entries", zap.Error(err))
	}

	logger.Info("published log entries", zap.Int("count", *count), zap.String("topic", *topic))
	helpers.PrintStruct(metrics.Snapshot())
}
