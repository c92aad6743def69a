// Package metrics implements the strategy-evaluation pipeline and the
// ground-truth-vs-decision accounting that turns a run into a reproducible
// evaluation: confusion matrices, spam-reduction, latency percentiles,
// relay load, and resilience tracking.
package metrics

import (
	"fmt"
	"time"

	"github.com/cameri/nostr-simulator/antispam"
)

// errorLogger is the minimal structured-logging surface the pipeline
// needs; simlog.Logger satisfies it.
type errorLogger interface {
	Error(category, message string, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Error(string, string, map[string]any) {}

// registeredStrategy pairs a Strategy with its own confusion matrix,
// spam-reduction counters, and latency samples.
type registeredStrategy struct {
	strategy      antispam.Strategy
	confusion     Confusion
	spamReduction SpamReduction
	latencySecs   []float64
	errorCount    int
}

// Pipeline owns all per-run metrics state: ground-truth labels, per-
// strategy and overall confusion/spam-reduction counters, latency
// samples, relay load, and resilience tracking.
type Pipeline struct {
	now func() time.Time

	labels     map[antispam.MessageID]bool
	strategies []*registeredStrategy

	overallConfusion     Confusion
	overallSpamReduction SpamReduction

	relayLoad *RelayLoad
	resil     *Resilience

	logger errorLogger
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithRelayLoadWindow sets the bounded sliding-window sample count for
// relay-load accounting (default 100).
func WithRelayLoadWindow(n int) Option {
	return func(p *Pipeline) { p.relayLoad = newRelayLoad(n) }
}

// WithLogger sets the structured-logging sink used for per-strategy
// evaluate/update errors. Any type with an Error(category, message string,
// fields map[string]any) method satisfies this, including *simlog.Logger.
func WithLogger(l errorLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the wall-clock source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline constructs an empty Pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		now:       time.Now,
		labels:    make(map[antispam.MessageID]bool),
		relayLoad: newRelayLoad(defaultRelayLoadWindow),
		resil:     newResilience(),
		logger:    noopLogger{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RegisterStrategy adds a strategy to the pipeline, in evaluation order.
func (p *Pipeline) RegisterStrategy(s antispam.Strategy) {
	p.strategies = append(p.strategies, &registeredStrategy{strategy: s})
}

// Label records the ground-truth label for a message id. Once set for a
// given id, the label is immutable; later calls for the same id are
// ignored.
func (p *Pipeline) Label(id antispam.MessageID, isSpam bool) {
	if _, ok := p.labels[id]; ok {
		return
	}
	p.labels[id] = isSpam
}

// Resilience exposes the resilience tracker for attack/recovery recording.
func (p *Pipeline) Resilience() *Resilience { return p.resil }

// Process runs the full per-message evaluation protocol: ground-truth
// labeling (when labeler is non-nil), per-strategy evaluate/record/update,
// and then one relay-load sample whose processing time spans all the
// strategy evaluations for m.
func (p *Pipeline) Process(m antispam.Message, t float64, labeler antispam.Labeler) {
	if labeler != nil {
		p.Label(m.ID, labeler(m))
	}

	start := p.now()

	for _, rs := range p.strategies {
		p.evaluateOne(rs, m, t)
	}

	elapsed := p.now().Sub(start)
	p.relayLoad.record(p.now(), elapsed.Seconds(), m.Bytes())
}

func (p *Pipeline) evaluateOne(rs *registeredStrategy, m antispam.Message, t float64) {
	defer func() {
		if rec := recover(); rec != nil {
			rs.errorCount++
			p.logger.Error("strategy", fmt.Sprintf("strategy %q panicked evaluating message", rs.strategy.Name()), map[string]any{
				"strategy": rs.strategy.Name(),
				"message":  string(m.ID),
				"panic":    rec,
			})
		}
	}()

	evalStart := p.now()
	result := rs.strategy.Evaluate(m, t)
	elapsed := p.now().Sub(evalStart)

	if _, has := result.Latency(); !has {
		result = result.WithLatency(elapsed)
	}
	rs.latencySecs = append(rs.latencySecs, elapsed.Seconds())

	if isSpam, labeled := p.labels[m.ID]; labeled {
		recordDecision(&rs.confusion, &rs.spamReduction, isSpam, result.Allowed)
		recordDecision(&p.overallConfusion, &p.overallSpamReduction, isSpam, result.Allowed)
	}

	if result.Allowed {
		p.updateState(rs, m, t)
	}
}

func (p *Pipeline) updateState(rs *registeredStrategy, m antispam.Message, t float64) {
	defer func() {
		if rec := recover(); rec != nil {
			rs.errorCount++
			p.logger.Error("strategy", fmt.Sprintf("strategy %q panicked updating state", rs.strategy.Name()), map[string]any{
				"strategy": rs.strategy.Name(),
				"message":  string(m.ID),
				"panic":    rec,
			})
		}
	}()
	rs.strategy.UpdateState(m, t)
}
