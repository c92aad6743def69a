package simengine

import (
	"time"

	"github.com/cameri/nostr-simulator/internal/pquantile"
)

// Diagnostics is engine-internal dispatch-latency self-monitoring. Unlike
// the metrics pipeline's strategy latency percentiles (which must be
// byte-identical across repeated runs, see metrics.computeLatencyPercentiles),
// this is an approximate, O(1)-per-event p99 the engine keeps about its own
// dispatch loop, never surfaced in a Report.
type Diagnostics struct {
	DispatchCount       int
	ApproxP99DispatchNs float64
}

func (e *Engine) trackDispatchLatency(d time.Duration) {
	if e.dispatchLatency == nil {
		e.dispatchLatency = pquantile.New(0.99)
	}
	e.dispatchLatency.Update(float64(d.Nanoseconds()))
}

// Diagnostics reports the engine's internal dispatch-latency estimate.
// Returns a zero Diagnostics before any event has been dispatched.
func (e *Engine) Diagnostics() Diagnostics {
	if e.dispatchLatency == nil {
		return Diagnostics{}
	}
	return Diagnostics{
		DispatchCount:       e.dispatchLatency.Count(),
		ApproxP99DispatchNs: e.dispatchLatency.Quantile(),
	}
}
