// Package metrics exposes the small set of in-process counters backing
// /api/get_metrics (spec.md §6: "{num_blocks, capacity}"). Adapted from
// the teacher's metrics package down to the surface this spec actually
// needs: a handful of atomic gauges, not a registry with
// InfluxDB/expvar/Prometheus export (see DESIGN.md).
package metrics

import "sync/atomic"

// Snapshot is the point-in-time reading /api/get_metrics returns.
type Snapshot struct {
	NumBlocks   uint64 `json:"num_blocks"`
	Capacity    uint64 `json:"capacity"`
	MempoolSize uint64 `json:"mempool_size"`
}

// Gauges holds atomically-updated counters a node updates as it commits
// blocks and pools transactions.
type Gauges struct {
	numBlocks   uint64
	mempoolSize uint64
	capacity    uint64
}

// NewGauges returns a Gauges fixed at the given block capacity (set once
// at startup and never mutated).
func NewGauges(capacity uint64) *Gauges {
	g := &Gauges{capacity: capacity}
	return g
}

// SetNumBlocks records the current chain length.
func (g *Gauges) SetNumBlocks(n uint64) { atomic.StoreUint64(&g.numBlocks, n) }

// SetMempoolSize records the current mempool length.
func (g *Gauges) SetMempoolSize(n uint64) { atomic.StoreUint64(&g.mempoolSize, n) }

// Snapshot returns a consistent-enough point-in-time read of all gauges.
func (g *Gauges) Snapshot() Snapshot {
	return Snapshot{
		NumBlocks:   atomic.LoadUint64(&g.numBlocks),
		Capacity:    g.capacity,
		MempoolSize: atomic.LoadUint64(&g.mempoolSize),
	}
}
