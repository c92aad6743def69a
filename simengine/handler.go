package simengine

import "github.com/cameri/nostr-simulator/simtime"

// Handler reacts to dispatched events. CanHandle reports which event types
// a handler accepts; the engine itself never calls it. By-type handlers are
// invoked for every non-cancelled event of the type they were registered
// under, and catch-all handlers for every non-cancelled event.
type Handler interface {
	CanHandle(eventType string) bool
	Handle(e *simtime.Event) []ScheduleRequest
}

// HandlerFunc adapts a plain function to the Handler interface for
// handlers with no type filtering logic of their own.
type HandlerFunc func(e *simtime.Event) []ScheduleRequest

func (f HandlerFunc) CanHandle(string) bool { return true }
func (f HandlerFunc) Handle(e *simtime.Event) []ScheduleRequest { return f(e) }

// ScheduleRequest is a new event a handler wants scheduled, expressed
// relative to the dispatching event's time (delay) so handlers never need
// to know the engine's absolute clock.
type ScheduleRequest struct {
	Delay    float64
	Type     string
	Priority int
	Payload  simtime.Payload
	Source   string
	Target   string
}
