package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the production zap logger used by the CLI. Logs go to
// stderr so command output on stdout stays readable.
func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// LogSnapshot writes every metric in the registry as one debug entry,
// fields in key order.
func LogSnapshot(logger *zap.Logger, r *MetricsRegistry) {
	snapshot := r.Snapshot()
	if len(snapshot) == 0 {
		return
	}
	fields := make([]zap.Field, 0, len(snapshot))
	for _, key := range SortedKeys(snapshot) {
		fields = append(fields, zap.Any(key, snapshot[key]))
	}
	logger.Debug("metrics", fields...)
}
