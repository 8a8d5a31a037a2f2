package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoOpCollector_DoesNotPanic(t *testing.T) {
	collector := NewNoOpCollector()
	collector.IncrementCounter(MetricToolCalls, "tool", "validate_soql")
	collector.RecordHistogram(MetricToolDuration, 0.1, "tool", "validate_soql")
	collector.RecordGauge("test_gauge", 42.0, "label1", "value1")
}

func TestNoOpCollector_StartTimer(t *testing.T) {
	collector := NewNoOpCollector()
	timer := collector.StartTimer("test_timer")

	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.Greater(t, duration, 0.0)
	assert.Less(t, duration, 1.0)
}
