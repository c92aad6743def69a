// Package simengine implements the dispatcher and run loop driving a
// simulation: handler registration, the termination-predicate-bounded
// event loop, and the strategy/metrics pipeline hook fired for every
// message-bearing event.
package simengine

import (
	"fmt"
	"reflect"
	"time"

	"github.com/cameri/nostr-simulator/antispam"
	"github.com/cameri/nostr-simulator/internal/pquantile"
	"github.com/cameri/nostr-simulator/metrics"
	"github.com/cameri/nostr-simulator/simtime"
)

type handlerRegistration struct {
	handler Handler
}

// Engine owns the event queue, handler registrations, and the metrics
// pipeline for one simulation run. It is not safe for concurrent use.
type Engine struct {
	opts *engineOptions

	queue *simtime.Queue

	byType   map[string][]*handlerRegistration
	catchAll []*handlerRegistration

	pipeline *metrics.Pipeline

	state           State
	stopReason      StopReason
	eventsProcessed int
	lastSnapshotAt  float64
	stopRequested   bool

	dispatchLatency *pquantile.Estimator

	fatalErr error
}

// New constructs an Idle Engine.
func New(opts ...Option) *Engine {
	resolved := resolveEngineOptions(opts)
	pipelineOpts := []metrics.Option{metrics.WithLogger(resolved.logger)}
	if resolved.metricsClock != nil {
		pipelineOpts = append(pipelineOpts, metrics.WithClock(resolved.metricsClock))
	}
	return &Engine{
		opts:     resolved,
		queue:    simtime.NewQueue(),
		byType:   make(map[string][]*handlerRegistration),
		pipeline: metrics.NewPipeline(pipelineOpts...),
	}
}

// State reports the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// StopReason reports why the run loop most recently exited (empty before
// the first run).
func (e *Engine) StopReason() StopReason { return e.stopReason }

// CurrentTime reports the simulation clock.
func (e *Engine) CurrentTime() float64 { return e.queue.CurrentTime() }

// QueueSize reports the number of entries still stored in the queue,
// including not-yet-skipped tombstones.
func (e *Engine) QueueSize() int { return e.queue.Size() }

// EventsProcessed reports how many events have been dispatched so far.
func (e *Engine) EventsProcessed() int { return e.eventsProcessed }

// Pipeline exposes the strategy/metrics pipeline, e.g. for direct
// resilience recording outside the normal message-processing path.
func (e *Engine) Pipeline() *metrics.Pipeline { return e.pipeline }

// RegisterHandler adds h under event type typ, in registration order.
func (e *Engine) RegisterHandler(typ string, h Handler) {
	e.byType[typ] = append(e.byType[typ], &handlerRegistration{handler: h})
}

// UnregisterHandler removes the first registration of h under typ,
// returning the dispatcher to its prior behavior for events of that type.
// Handlers of a non-comparable func type such as HandlerFunc are matched by
// their code pointer, so two closures built from the same function literal
// match each other.
func (e *Engine) UnregisterHandler(typ string, h Handler) {
	regs := e.byType[typ]
	for i, r := range regs {
		if sameHandler(r.handler, h) {
			e.byType[typ] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

func sameHandler(a, b Handler) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return a == nil && b == nil
	}
	if va.Type().Comparable() {
		return a == b
	}
	return va.Kind() == reflect.Func && va.Pointer() == vb.Pointer()
}

// RegisterCatchAllHandler adds h to be invoked for every non-cancelled
// event, in registration order, after by-type handlers.
func (e *Engine) RegisterCatchAllHandler(h Handler) {
	e.catchAll = append(e.catchAll, &handlerRegistration{handler: h})
}

// RegisterAntiSpamStrategy adds s to the metrics pipeline's evaluation
// order.
func (e *Engine) RegisterAntiSpamStrategy(s antispam.Strategy) {
	e.pipeline.RegisterStrategy(s)
}

// ScheduleAt schedules a new event at absolute simulation time t.
func (e *Engine) ScheduleAt(t float64, typ string, priority int, payload simtime.Payload, source, target string) (simtime.EventID, error) {
	return e.queue.ScheduleAt(t, typ, priority, payload, source, target)
}

// ScheduleAfter schedules a new event delta seconds after the current
// simulation time.
func (e *Engine) ScheduleAfter(delta float64, typ string, priority int, payload simtime.Payload, source, target string) (simtime.EventID, error) {
	return e.queue.ScheduleAfter(delta, typ, priority, payload, source, target)
}

// Cancel tombstones a pending event.
func (e *Engine) Cancel(id simtime.EventID) bool { return e.queue.Cancel(id) }

// Stop requests cooperative termination: the loop exits after the
// in-flight event finishes dispatching.
func (e *Engine) Stop() { e.stopRequested = true }

// ProcessMessage schedules a message-bearing event for immediate (zero
// delay) processing, mirroring the enhanced engine's process_nostr_event.
func (e *Engine) ProcessMessage(m antispam.Message, eventType, source string) (simtime.EventID, error) {
	if eventType == "" {
		eventType = "nostr_message"
	}
	payload := simtime.NewPayload(map[string]any{"message": m})
	return e.queue.ScheduleAfter(0, eventType, 0, payload, source, "")
}

// MessageFromPayload extracts the antispam.Message carried by an event's
// payload, if any.
func MessageFromPayload(p simtime.Payload) (antispam.Message, bool) {
	v, ok := p.Get("message")
	if !ok {
		return antispam.Message{}, false
	}
	m, ok := v.(antispam.Message)
	return m, ok
}

// Start transitions Idle->Running exactly once and runs the loop to
// completion, returning the fatal error (if any) that caused a Failed
// terminal state.
func (e *Engine) Start() error {
	if e.state != StateIdle {
		return fmt.Errorf("simengine: start called from non-idle state %s", e.state)
	}
	e.state = StateRunning
	e.run()
	return e.fatalErr
}

func (e *Engine) run() {
	for {
		if e.stopRequested {
			e.terminate(StateStopped, StopReasonCooperative)
			return
		}
		if e.opts.hasMaxEvents && e.eventsProcessed >= e.opts.maxEvents {
			e.terminate(StateCompleted, StopReasonEventLimit)
			return
		}
		if e.queue.CurrentTime() >= e.opts.duration {
			e.terminate(StateCompleted, StopReasonTimeLimit)
			return
		}

		next, ok := e.queue.Peek()
		if !ok {
			e.terminate(StateCompleted, StopReasonQueueEmpty)
			return
		}
		if next.Time >= e.opts.duration {
			e.terminate(StateCompleted, StopReasonTimeLimit)
			return
		}

		ev, _ := e.queue.Pop()

		if ev.ID == "" || ev.Type == "" {
			e.fail(&QueueCorruptionError{Reason: "popped event missing id or type"})
			return
		}
		if ev.Time < e.queue.CurrentTime() {
			e.fail(&ClockRegressionError{Current: e.queue.CurrentTime(), Next: ev.Time})
			return
		}
		e.queue.SetCurrentTime(ev.Time)

		e.dispatch(ev)
		e.eventsProcessed++

		if !ev.Payload.Cancelled() {
			if m, ok := MessageFromPayload(ev.Payload); ok {
				e.pipeline.Process(m, ev.Time, e.opts.labeler)
			}
		}

		if e.queue.CurrentTime()-e.lastSnapshotAt >= e.opts.metricsInterval {
			e.lastSnapshotAt = e.queue.CurrentTime()
		}
	}
}

func (e *Engine) dispatch(ev *simtime.Event) {
	if ev.Payload.Cancelled() {
		return
	}

	start := time.Now()
	defer func() { e.trackDispatchLatency(time.Since(start)) }()

	var generated []ScheduleRequest

	for _, reg := range e.byType[ev.Type] {
		generated = append(generated, e.invokeHandler(reg.handler, ev)...)
	}
	for _, reg := range e.catchAll {
		generated = append(generated, e.invokeHandler(reg.handler, ev)...)
	}

	for _, req := range generated {
		if _, err := e.queue.ScheduleAfter(req.Delay, req.Type, req.Priority, req.Payload, req.Source, req.Target); err != nil {
			e.opts.logger.Error("handler", "generated event rejected", map[string]any{
				"error": err.Error(),
				"type":  req.Type,
			})
		}
	}
}

func (e *Engine) invokeHandler(h Handler, ev *simtime.Event) (generated []ScheduleRequest) {
	defer func() {
		if r := recover(); r != nil {
			generated = nil
			e.opts.logger.Error("handler", "handler panicked", map[string]any{
				"handler": fmt.Sprintf("%T", h),
				"panic":   r,
				"event":   string(ev.ID),
				"type":    ev.Type,
			})
		}
	}()
	return h.Handle(ev)
}

func (e *Engine) terminate(s State, reason StopReason) {
	e.state = s
	e.stopReason = reason
}

func (e *Engine) fail(err error) {
	e.fatalErr = err
	e.state = StateFailed
	e.stopReason = StopReasonFatal
	e.opts.logger.Error("engine", "fatal run error", map[string]any{"error": err.Error()})
}
