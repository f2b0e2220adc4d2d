package main

import (
	// Go Internal Packages
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	// Local Packages
	config "log-stream/config"
	helpers "log-stream/helpers"
	kafka "log-stream/kafka"
	mongodb "log-stream/repositories/mongodb"
	redis "log-stream/repositories/redis"
	processors "log-stream/services/processors"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// LoadSecrets loads the secret variables and overrides the config
func LoadSecrets(k config.Config) config.Config {
	MongoURI := os.Getenv("MONGO_URI")
	if MongoURI != "" {
		k.Mongo.URI = MongoURI
	}

	RedisURI := os.Getenv("REDIS_URI")
	if RedisURI != "" {
		k.Redis.URI = RedisURI
	}

	KafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if KafkaBrokers != "" {
		k.Kafka.Brokers = strings.Split(KafkaBrokers, ",")
	}

	IsProdMode := os.Getenv("IS_PROD_MODE")
	if IsProdMode != "" {
		k.IsProdMode = IsProdMode == "true"
	}
	return k
}

// LoadConfig loads the default configuration and overrides it with the config
// file specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before starting the consumer
	updatedKonf := LoadSecrets(appKonf)
	if err = updatedKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !updatedKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(k.String("logger.level")))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = updatedKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, updatedKonf.Mongo.URI)
	if err != nil {
		logger.Fatal("cannot create mongo client", zap.Error(err))
	}

	// Redis Connection
	redisClient, err := redis.Connect(ctx, updatedKonf.Redis.URI, updatedKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}

	logRepo := mongodb.NewLogRepository(mongoClient)
	dedupe := redis.NewDedupeStore(redisClient, logger)

	metrics := kafka.NewMetrics()
	prom := kprom.NewMetrics("ls")

	// Dead letter path shares the client counters with the consumer
	producer, err := kafka.NewProducer(&kafka.ProducerConfig{Brokers: updatedKonf.Kafka.Brokers}, metrics, prom, logger)
	if err != nil {
		logger.Fatal("cannot create dead letter producer", zap.Error(err))
	}
	defer producer.Close()

	dlq := kafka.NewDLQProducer(producer, updatedKonf.Kafka.DLQTopic, metrics, logger)

	registry := processors.NewRegistry()
	logProcessor, err := registry.Build("log", logger, logRepo)
	if err != nil {
		logger.Fatal("cannot build log processor", zap.Error(err))
	}

	manager := processors.NewLogBatchManager(logger, dedupe, dlq)
	pool, err := kafka.NewRecordProcessor(logProcessor, updatedKonf.Kafka.WorkerCount, manager, logger)
	if err != nil {
		logger.Fatal("cannot start worker pool", zap.Error(err))
	}
	defer pool.Close()

	conf := &kafka.ConsumerConfig{
		Brokers:            updatedKonf.Kafka.Brokers,
		GroupID:            updatedKonf.Kafka.GroupID,
		Topics:             updatedKonf.Kafka.Topics,
		OffsetReset:        updatedKonf.Kafka.OffsetReset,
		PollTimeout:        updatedKonf.Kafka.PollTimeout,
		BatchSize:          updatedKonf.Kafka.BatchSize,
		CheckpointInterval: updatedKonf.Kafka.CheckpointInterval,
		CommitMode:         kafka.CommitMode(updatedKonf.Kafka.CommitMode),
		DispatchTimeout:    updatedKonf.Kafka.DispatchTimeout,
	}

	logConsumer, err := kafka.NewConsumer(conf, pool, metrics, prom, logger)
	if err != nil {
		logger.Fatal("cannot create log consumer", zap.Error(err))
	}

	err = logConsumer.Poll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("polling stopped", zap.Error(err))
	}

	if !updatedKonf.IsProdMode {
		helpers.PrintStruct(metrics.Snapshot())
	}
}
