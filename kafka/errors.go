package kafka

import (
	// Go Internal Packages
	"errors"

	// External Packages
	"github.com/twmb/franz-go/pkg/kerr"
	"go.uber.org/zap"
)

// ErrorPolicy decides what happens to a failure after it has been logged and
// counted.
type ErrorPolicy int

const (
	// ErrorPolicyAbsorb swallows the failure after counting it. Callers get a
	// nil error and must not assume the operation succeeded; the counters are
	// the only feedback channel.
	ErrorPolicyAbsorb ErrorPolicy = iota

	// ErrorPolicyPropagate returns the failure to the caller after counting.
	ErrorPolicyPropagate
)

// errorCapture is the cross-cutting failure handler every client operation
// passes through: log, classify into kafka_errors or general_errors, then
// absorb or propagate per policy.
type errorCapture struct {
	policy  ErrorPolicy
	metrics *Metrics
	logger  *zap.Logger
}

func (c errorCapture) capture(op string, err error) error {
	if err == nil {
		return nil
	}

	var brokerErr *kerr.Error
	if errors.As(err, &brokerErr) {
		c.logger.Error("kafka error", zap.String("op", op), zap.Error(err))
		c.metrics.Inc(MetricKafkaErrors)
	} else {
		c.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
		c.metrics.Inc(MetricGeneralErrors)
	}

	if c.policy == ErrorPolicyPropagate {
		return err
	}
	return nil
}
