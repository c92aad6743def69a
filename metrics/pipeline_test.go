package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameri/nostr-simulator/antispam"
	"github.com/cameri/nostr-simulator/metrics"
)

// blockingStrategy blocks (denies) messages whose id is in the given set.
type blockingStrategy struct {
	name    string
	blocked map[antispam.MessageID]bool
}

func (s *blockingStrategy) Name() string { return s.name }

func (s *blockingStrategy) Evaluate(m antispam.Message, t float64) antispam.StrategyResult {
	return antispam.StrategyResult{Allowed: !s.blocked[m.ID]}
}

func (s *blockingStrategy) UpdateState(antispam.Message, float64) {}
func (s *blockingStrategy) ResetMetrics()                         {}
func (s *blockingStrategy) Metrics() map[string]float64           { return nil }

func TestMetricsCorrectnessScenario(t *testing.T) {
	// Literal end-to-end scenario: label m1,m2,m3 spam, m4,m5 legit; a
	// strategy blocks m1,m2,m4. Expect TP=2,FN=1,FP=1,TN=1.
	strat := &blockingStrategy{
		name: "s1",
		blocked: map[antispam.MessageID]bool{
			"m1": true, "m2": true, "m4": true,
		},
	}

	p := metrics.NewPipeline()
	p.RegisterStrategy(strat)

	labels := map[antispam.MessageID]bool{
		"m1": true, "m2": true, "m3": true,
		"m4": false, "m5": false,
	}
	labeler := func(m antispam.Message) bool { return labels[m.ID] }

	for _, id := range []antispam.MessageID{"m1", "m2", "m3", "m4", "m5"} {
		p.Process(antispam.Message{ID: id}, 0, labeler)
	}

	report := p.Report(metrics.TimeSeries{}, metrics.CollectionInfo{})
	sr := report.Summary.ByStrategy["s1"]

	assert.Equal(t, 2, sr.Confusion.TP)
	assert.Equal(t, 1, sr.Confusion.FN)
	assert.Equal(t, 1, sr.Confusion.FP)
	assert.Equal(t, 1, sr.Confusion.TN)
	assert.InDelta(t, 2.0/3.0, sr.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, sr.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, sr.F1, 1e-9)
	assert.InDelta(t, 3.0/5.0, sr.Accuracy, 1e-9)
	assert.InDelta(t, 66.666666, sr.SpamReductionPct, 1e-4)
	assert.InDelta(t, 50.0, sr.LegitPassRate, 1e-9)
}

func TestUpdateStateOnlyCalledWhenAllowed(t *testing.T) {
	var updates []antispam.MessageID
	s := &recordingStrategy{
		name: "rec",
		onUpdate: func(m antispam.Message) {
			updates = append(updates, m.ID)
		},
		allow: func(m antispam.Message) bool { return m.ID != "blocked" },
	}

	p := metrics.NewPipeline()
	p.RegisterStrategy(s)

	p.Process(antispam.Message{ID: "blocked"}, 0, nil)
	p.Process(antispam.Message{ID: "allowed"}, 0, nil)

	require.Len(t, updates, 1)
	assert.Equal(t, antispam.MessageID("allowed"), updates[0])
}

type recordingStrategy struct {
	name     string
	onUpdate func(antispam.Message)
	allow    func(antispam.Message) bool
}

func (s *recordingStrategy) Name() string { return s.name }
func (s *recordingStrategy) Evaluate(m antispam.Message, t float64) antispam.StrategyResult {
	return antispam.StrategyResult{Allowed: s.allow(m)}
}
func (s *recordingStrategy) UpdateState(m antispam.Message, t float64) { s.onUpdate(m) }
func (s *recordingStrategy) ResetMetrics()                             {}
func (s *recordingStrategy) Metrics() map[string]float64               { return nil }

type panickyStrategy struct{}

func (panickyStrategy) Name() string { return "panicky" }
func (panickyStrategy) Evaluate(antispam.Message, float64) antispam.StrategyResult {
	panic("boom")
}
func (panickyStrategy) UpdateState(antispam.Message, float64) {}
func (panickyStrategy) ResetMetrics()                         {}
func (panickyStrategy) Metrics() map[string]float64           { return nil }

func TestStrategyPanicIsContainedAndCounted(t *testing.T) {
	p := metrics.NewPipeline()
	p.RegisterStrategy(panickyStrategy{})
	p.RegisterStrategy(&blockingStrategy{name: "ok", blocked: map[antispam.MessageID]bool{}})

	assert.NotPanics(t, func() {
		p.Process(antispam.Message{ID: "m"}, 0, nil)
	})

	report := p.Report(metrics.TimeSeries{}, metrics.CollectionInfo{})
	assert.Equal(t, 1, report.Summary.ByStrategy["panicky"].Errors)
}

func TestResilienceOfflinePrefixAndRecovery(t *testing.T) {
	p := metrics.NewPipeline()
	r := p.Resilience()

	r.RecordAttack("offline_sybil", true, 1)
	r.RecordAttack("offline_spam", false, 2)
	r.RecordAttack("burst_spam", true, 3)

	r.StartRecovery("offline_sybil", 10)
	r.EndRecovery("offline_sybil", 15)
	r.EndRecovery("never_started", 99) // no-op

	r.UpdateSybilResistanceScore(1.5)

	report := p.Report(metrics.TimeSeries{}, metrics.CollectionInfo{})
	res := report.Summary.Resilience

	assert.Equal(t, 1, res.OfflineDetected)
	assert.Equal(t, 1, res.OfflineMissed)
	assert.Len(t, res.Timeline, 3)
	assert.InDelta(t, 5.0, res.RecoverySeconds["offline_sybil"], 1e-9)
	assert.Equal(t, 1.0, res.SybilResistanceScore)
}

func TestPercentilesZeroOnEmptySet(t *testing.T) {
	p := metrics.NewPipeline(metrics.WithClock(func() time.Time { return time.Unix(0, 0) }))
	p.RegisterStrategy(&blockingStrategy{name: "s", blocked: map[antispam.MessageID]bool{}})

	report := p.Report(metrics.TimeSeries{}, metrics.CollectionInfo{})
	lat := report.Summary.ByStrategy["s"].Latency
	assert.Equal(t, 0, lat.Count)
	assert.Equal(t, float64(0), lat.P95)
	assert.Equal(t, float64(0), lat.P99)
}
