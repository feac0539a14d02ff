package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegistryReturnsSameInstruments(t *testing.T) {
	r := NewMetricsRegistry()
	assert.Same(t, r.Counter(MetricRuns), r.Counter(MetricRuns))
	assert.Same(t, r.Gauge(MetricEchoInflight), r.Gauge(MetricEchoInflight))
	assert.Same(t, r.Histogram(StepMetric("package")), r.Histogram(StepMetric("package")))
}

func TestSnapshot(t *testing.T) {
	r := NewMetricsRegistry()
	r.Counter(MetricRuns).Add(2)
	r.Gauge(MetricEchoInflight).Set(1)
	h := r.Histogram(StepMetric("bump"))
	h.Observe(2)
	h.Observe(4)

	snap := r.Snapshot()
	assert.Equal(t, int64(2), snap["counter.pipeline.runs"])
	assert.Equal(t, int64(1), snap["gauge.echo.inflight"])
	assert.Equal(t, int64(2), snap["histogram.pipeline.step.bump.ms.count"])
	assert.Equal(t, 6.0, snap["histogram.pipeline.step.bump.ms.sum"])
	assert.Equal(t, 3.0, snap["histogram.pipeline.step.bump.ms.avg"])
	assert.Equal(t, 4.0, snap["histogram.pipeline.step.bump.ms.max"])

	keys := SortedKeys(snap)
	assert.Equal(t, "counter.pipeline.runs", keys[0])
}

func TestCounterConcurrentInc(t *testing.T) {
	r := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Counter(MetricEchoRequests).Inc()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), r.Counter(MetricEchoRequests).Value())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true)
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	_ = logger.Sync()
}

func TestLogSnapshot(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewMetricsRegistry()
	r.Counter(MetricRuns).Inc()
	r.Histogram(StepMetric("package")).Observe(12)

	LogSnapshot(zap.New(core), r)

	entries := logs.FilterMessage("metrics").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["counter.pipeline.runs"])
	assert.Equal(t, 12.0, fields["histogram.pipeline.step.package.ms.max"])

	var keys []string
	for _, f := range entries[0].Context {
		keys = append(keys, f.Key)
	}
	assert.IsNonDecreasing(t, keys)
}

func TestLogSnapshotEmptyRegistry(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	LogSnapshot(zap.New(core), NewMetricsRegistry())
	assert.Zero(t, logs.Len())
}
