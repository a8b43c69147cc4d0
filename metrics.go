package bucketmap

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// mapMetrics - Counters and gauges of one map. A nil *mapMetrics is valid and records nothing.
type mapMetrics struct {
	set                 *metrics.Set
	puts                *metrics.Counter
	updates             *metrics.Counter
	gets                *metrics.Counter
	getHits             *metrics.Counter
	deletes             *metrics.Counter
	growths             *metrics.Counter
	evacuatedBuckets    *metrics.Counter
	movedEntries        *metrics.Counter
	overflowAllocations *metrics.Counter
	allocationFailures  *metrics.Counter
	movesPerWrite       gometrics.Histogram
}

// newMapMetrics - Registers the metrics of bucketMap in a set of its own, labelled with name
func newMapMetrics(name string, bucketMap *BucketMap) *mapMetrics {
	set := metrics.NewSet()
	label := fmt.Sprintf(`{map=%q}`, name)

	m := &mapMetrics{
		set:                 set,
		puts:                set.NewCounter("bucketmap_puts_total" + label),
		updates:             set.NewCounter("bucketmap_updates_total" + label),
		gets:                set.NewCounter("bucketmap_gets_total" + label),
		getHits:             set.NewCounter("bucketmap_get_hits_total" + label),
		deletes:             set.NewCounter("bucketmap_deletes_total" + label),
		growths:             set.NewCounter("bucketmap_growths_total" + label),
		evacuatedBuckets:    set.NewCounter("bucketmap_evacuated_buckets_total" + label),
		movedEntries:        set.NewCounter("bucketmap_moved_entries_total" + label),
		overflowAllocations: set.NewCounter("bucketmap_overflow_allocations_total" + label),
		allocationFailures:  set.NewCounter("bucketmap_allocation_failures_total" + label),
		movesPerWrite:       gometrics.NewHistogram(gometrics.NewUniformSample(1028)),
	}

	set.NewGauge("bucketmap_entries"+label, func() float64 {
		return float64(bucketMap.count)
	})
	set.NewGauge("bucketmap_buckets"+label, func() float64 {
		return float64(bucketMap.buckets.Count)
	})
	set.NewGauge("bucketmap_old_buckets"+label, func() float64 {
		return float64(bucketMap.oldBuckets.Count)
	})
	set.NewGauge("bucketmap_overflow_buckets"+label, func() float64 {
		return float64(bucketMap.arena.Live())
	})

	return m
}

func (m *mapMetrics) put() {
	if m != nil {
		m.puts.Inc()
	}
}

func (m *mapMetrics) update() {
	if m != nil {
		m.updates.Inc()
	}
}

func (m *mapMetrics) get(hit bool) {
	if m == nil {
		return
	}
	m.gets.Inc()
	if hit {
		m.getHits.Inc()
	}
}

func (m *mapMetrics) delete() {
	if m != nil {
		m.deletes.Inc()
	}
}

func (m *mapMetrics) growth() {
	if m != nil {
		m.growths.Inc()
	}
}

func (m *mapMetrics) evacuated(moved int) {
	if m == nil {
		return
	}
	m.evacuatedBuckets.Inc()
	m.movedEntries.Add(moved)
}

func (m *mapMetrics) moves(moved int) {
	if m != nil {
		m.movesPerWrite.Update(int64(moved))
	}
}

func (m *mapMetrics) overflowAllocation() {
	if m != nil {
		m.overflowAllocations.Inc()
	}
}

func (m *mapMetrics) allocationFailure() {
	if m != nil {
		m.allocationFailures.Inc()
	}
}

// WritePrometheus - Writes the map's metrics in Prometheus text format to w. Nothing is written if the map was
// created without Options.Metrics.
func (B *BucketMap) WritePrometheus(w io.Writer) {
	if B == nil || B.metrics == nil {
		return
	}
	B.metrics.set.WritePrometheus(w)
}

// MovesPerWrite - Returns the histogram of entries moved by each write during a migration. A map created without
// Options.Metrics returns a histogram that records nothing.
func (B *BucketMap) MovesPerWrite() gometrics.Histogram {
	if B == nil || B.metrics == nil {
		return gometrics.NilHistogram{}
	}
	return B.metrics.movesPerWrite
}
