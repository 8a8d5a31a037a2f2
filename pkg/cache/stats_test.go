package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCollector_Counters(t *testing.T) {
	collector := NewStatsCollector()

	for i := 0; i < 5; i++ {
		collector.RecordHit()
	}
	for i := 0; i < 3; i++ {
		collector.RecordMiss()
	}
	collector.RecordEviction()
	collector.UpdateSize(42)

	stats := collector.GetStats()
	assert.Equal(t, uint64(5), stats.Hits)
	assert.Equal(t, uint64(3), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, int64(42), stats.Size)
}

func TestStatsCollector_HitRate(t *testing.T) {
	collector := NewStatsCollector()
	assert.Equal(t, 0.0, collector.HitRate())

	collector.RecordHit()
	collector.RecordHit()
	assert.Equal(t, 1.0, collector.HitRate())

	collector.RecordMiss()
	collector.RecordMiss()
	assert.Equal(t, 0.5, collector.HitRate())
}

func TestStatsCollector_Concurrent(t *testing.T) {
	collector := NewStatsCollector()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHit()
			collector.RecordMiss()
			collector.UpdateSize(100)
		}()
	}
	wg.Wait()

	stats := collector.GetStats()
	assert.Equal(t, uint64(10), stats.Hits)
	assert.Equal(t, uint64(10), stats.Misses)
	assert.Equal(t, int64(100), stats.Size)
}

func TestStatsCollector_LastUpdated(t *testing.T) {
	collector := NewStatsCollector()
	initial := collector.GetStats()

	time.Sleep(10 * time.Millisecond)
	collector.RecordHit()

	assert.True(t, collector.GetStats().LastUpdated.After(initial.LastUpdated))
}
