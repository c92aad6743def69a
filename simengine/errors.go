package simengine

import "fmt"

// ClockRegressionError is a fatal run error: the next popped event's time
// is before the engine's current time, which must never happen given
// simtime.Queue's own monotonicity guard — its presence here indicates
// queue corruption upstream.
type ClockRegressionError struct {
	Current float64
	Next    float64
}

func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("simengine: clock regression: next event time %g is before current time %g", e.Next, e.Current)
}

// QueueCorruptionError is a fatal run error reported when the queue
// returns a structurally invalid event (an empty id or an empty type tag).
type QueueCorruptionError struct {
	Reason string
}

func (e *QueueCorruptionError) Error() string {
	return "simengine: queue corruption: " + e.Reason
}
