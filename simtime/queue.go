package simtime

import (
	"container/heap"
	"strconv"
)

// Queue is a priority-ordered, cancellable event queue driving the
// simulator's logical clock. It is not safe for concurrent use; the
// simulation model is single-threaded by design.
type Queue struct {
	heap        eventHeap
	index       map[EventID]*Event
	currentTime float64
	nextSeq     uint64
	nextID      uint64
}

// NewQueue returns an empty queue with its logical clock at zero.
func NewQueue() *Queue {
	return &Queue{index: make(map[EventID]*Event)}
}

// CurrentTime reports the logical clock as last set by SetCurrentTime (zero
// initially). Pop does not advance it.
func (q *Queue) CurrentTime() float64 { return q.currentTime }

// SetCurrentTime lets the owning engine advance the clock explicitly, used
// when the engine itself enforces monotonicity across pop calls.
func (q *Queue) SetCurrentTime(t float64) { q.currentTime = t }

func (q *Queue) nextEventID() EventID {
	q.nextID++
	return EventID("evt-" + strconv.FormatUint(q.nextID, 10))
}

// ScheduleAt inserts an event at absolute simulation time t. It fails with
// *InvalidTimeError if t is strictly before the queue's current time.
func (q *Queue) ScheduleAt(t float64, typ string, priority int, payload Payload, source, target string) (EventID, error) {
	if t < q.currentTime {
		return "", &InvalidTimeError{Requested: t, Current: q.currentTime}
	}
	id := q.nextEventID()
	e := &Event{
		ID:       id,
		Time:     t,
		Priority: priority,
		Type:     typ,
		Payload:  payload,
		Source:   source,
		Target:   target,
		seq:      q.nextSeq,
	}
	q.nextSeq++
	heap.Push(&q.heap, e)
	q.index[id] = e
	return id, nil
}

// ScheduleAfter inserts an event at currentTime+delta. It fails with
// *InvalidDelayError if delta is negative.
func (q *Queue) ScheduleAfter(delta float64, typ string, priority int, payload Payload, source, target string) (EventID, error) {
	if delta < 0 {
		return "", &InvalidDelayError{Delay: delta}
	}
	return q.ScheduleAt(q.currentTime+delta, typ, priority, payload, source, target)
}

// Cancel tombstones the event with the given id. It returns true if an
// event with that id existed and had not already been dispatched;
// subsequent calls for the same id return false.
func (q *Queue) Cancel(id EventID) bool {
	e, ok := q.index[id]
	if !ok {
		return false
	}
	e.cancelled = true
	e.Payload = e.Payload.withCancelled()
	delete(q.index, id)
	return true
}

// Peek returns the earliest pending event without removing it, whether or
// not it has been cancelled. Cancellation is reported through the event's
// own payload flag (see Event.Payload.Cancelled); it is the dispatcher's
// job, not the queue's, to skip handler invocation for it.
func (q *Queue) Peek() (*Event, bool) {
	if len(q.heap) == 0 {
		return nil, false
	}
	return q.heap[0], true
}

// Pop removes and returns the earliest pending event, still yielding it if
// it was cancelled: the cancelled event is handed back with its payload's
// cancelled flag set, not silently dropped. Callers that must not act on a
// cancelled event check Event.Payload.Cancelled() themselves.
func (q *Queue) Pop() (*Event, bool) {
	if len(q.heap) == 0 {
		return nil, false
	}
	e := heap.Pop(&q.heap).(*Event)
	delete(q.index, e.ID)
	return e, true
}

// Size reports the number of entries still stored, including cancelled
// ones not yet popped.
func (q *Queue) Size() int { return len(q.heap) }

// Empty reports whether the queue holds no pending entries at all,
// cancelled or not: a cancelled event still occupies a slot until it is
// popped.
func (q *Queue) Empty() bool { return len(q.heap) == 0 }

// Clear discards all pending events.
func (q *Queue) Clear() {
	q.heap = q.heap[:0]
	q.index = make(map[EventID]*Event)
}

type eventHeap []*Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].Less(h[j]) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)         { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
