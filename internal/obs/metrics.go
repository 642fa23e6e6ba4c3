package obs

import (
	"sync/atomic"

	"main/internal/model/enum"
)

const maxSource = int(enum.SourceBinance)

// Metrics collects lightweight counters for the relay pipeline. All methods
// are safe on a nil receiver so wiring metrics stays optional.
type Metrics struct {
	quoteCounts  [maxSource + 1]uint64
	dissonances  uint64
	comparisons  uint64
	skipped      uint64
	sinkErrors   uint64
	queueDrops   uint64
	positionSync uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncQuote counts one ingested quote for a source.
func (m *Metrics) IncQuote(source enum.Source) {
	if m == nil {
		return
	}
	idx := int(source)
	if idx >= 0 && idx < len(m.quoteCounts) {
		atomic.AddUint64(&m.quoteCounts[idx], 1)
	}
}

// IncComparison counts one cross-source comparison.
func (m *Metrics) IncComparison() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.comparisons, 1)
}

// IncSkipped counts a comparison skipped for a missing or malformed side.
func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.skipped, 1)
}

// IncDissonance counts one detected dissonance.
func (m *Metrics) IncDissonance() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.dissonances, 1)
}

// IncSinkError counts one failed publish to the dissonance sink.
func (m *Metrics) IncSinkError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sinkErrors, 1)
}

// IncQueueDrop counts one event dropped by a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncPositionSync counts one position snapshot written to storage.
func (m *Metrics) IncPositionSync() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.positionSync, 1)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	QuoteCounts  map[enum.Source]uint64
	Comparisons  uint64
	Skipped      uint64
	Dissonances  uint64
	SinkErrors   uint64
	QueueDrops   uint64
	PositionSync uint64
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		QuoteCounts:  make(map[enum.Source]uint64, maxSource),
		Comparisons:  atomic.LoadUint64(&m.comparisons),
		Skipped:      atomic.LoadUint64(&m.skipped),
		Dissonances:  atomic.LoadUint64(&m.dissonances),
		SinkErrors:   atomic.LoadUint64(&m.sinkErrors),
		QueueDrops:   atomic.LoadUint64(&m.queueDrops),
		PositionSync: atomic.LoadUint64(&m.positionSync),
	}
	for idx := range m.quoteCounts {
		count := atomic.LoadUint64(&m.quoteCounts[idx])
		if count == 0 {
			continue
		}
		snap.QuoteCounts[enum.Source(idx)] = count
	}
	return snap
}
