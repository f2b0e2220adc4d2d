package processors

import (
	// Go Internal Packages
	"fmt"

	// Local Packages
	kafka "log-stream/kafka"

	// External Packages
	"go.uber.org/zap"
)

// Builder constructs the event processor registered for a message-type tag.
type Builder func(logger *zap.Logger, repo LogRepository) kafka.EventProcessor

// Registry maps message-type tags to processor constructors. It is built once
// at startup and passed to whoever needs it; there is no package-level state.
type Registry map[string]Builder

func NewRegistry() Registry {
	return Registry{
		"log": func(logger *zap.Logger, repo LogRepository) kafka.EventProcessor {
			return NewLogProcessor(logger, repo)
		},
	}
}

// Build returns the processor for the given tag.
func (r Registry) Build(tag string, logger *zap.Logger, repo LogRepository) (kafka.EventProcessor, error) {
	builder, ok := r[tag]
	if !ok {
		return nil, fmt.Errorf("no processor registered for tag %q", tag)
	}
	return builder(logger, repo), nil
}
