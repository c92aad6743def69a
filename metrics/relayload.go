package metrics

import (
	"time"

	"github.com/cameri/nostr-simulator/internal/ringwindow"
)

// relaySample is one observation of per-event relay load: wall-clock time
// it was taken, the processing time spent on that event, and the message's
// estimated wire size.
type relaySample struct {
	at      time.Time
	cpuSecs float64
	bytes   int
}

// RelayLoad is a bounded sliding-window tracker of recent relay load
// samples, plus running peak trackers. The backing ring is rounded up to a
// power of two; snapshots use only the most recent size samples.
type RelayLoad struct {
	window   *ringwindow.Window[relaySample]
	size     int
	peakCPU  float64
	peakByte int
}

// defaultRelayLoadWindow is the default sample count, matching the
// original collector's deque(maxlen=100).
const defaultRelayLoadWindow = 100

func newRelayLoad(windowSize int) *RelayLoad {
	if windowSize <= 0 {
		windowSize = defaultRelayLoadWindow
	}
	return &RelayLoad{window: ringwindow.New[relaySample](nextPow2(windowSize)), size: windowSize}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (r *RelayLoad) record(at time.Time, cpuSecs float64, bytes int) {
	r.window.Push(relaySample{at: at, cpuSecs: cpuSecs, bytes: bytes})
	if cpuSecs > r.peakCPU {
		r.peakCPU = cpuSecs
	}
	if bytes > r.peakByte {
		r.peakByte = bytes
	}
}

// RelayLoadSnapshot is a value-copy view of relay load over the retained
// window.
type RelayLoadSnapshot struct {
	SampleCount       int
	PeakCPUSeconds    float64
	PeakBytes         int
	EventsPerSecond   float64
	BytesPerSecond    float64
	WindowRetained    int
	WindowCapacity    int
}

// snapshot computes events/sec and bytes/sec over samples taken within the
// last one second of real time relative to "now".
func (r *RelayLoad) snapshot(now time.Time) RelayLoadSnapshot {
	samples := r.window.Samples()
	if len(samples) > r.size {
		samples = samples[len(samples)-r.size:]
	}
	s := RelayLoadSnapshot{
		SampleCount:    len(samples),
		PeakCPUSeconds: r.peakCPU,
		PeakBytes:      r.peakByte,
		WindowRetained: len(samples),
		WindowCapacity: r.size,
	}

	cutoff := now.Add(-time.Second)
	var recentEvents int
	var recentBytes int
	for _, sample := range samples {
		if sample.at.After(cutoff) {
			recentEvents++
			recentBytes += sample.bytes
		}
	}
	s.EventsPerSecond = float64(recentEvents)
	s.BytesPerSecond = float64(recentBytes)
	return s
}
