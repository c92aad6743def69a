// Command nostrsim-demo runs a short simulation wiring the engine, the
// strategy/metrics pipeline, and three reference anti-spam strategies
// against a small synthetic traffic generator, then prints the resulting
// report as JSON. It exists to exercise the wiring end to end, the way
// the teacher's examples/ directory exercises a library's basic usage.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/cameri/nostr-simulator/antispam"
	"github.com/cameri/nostr-simulator/metrics"
	"github.com/cameri/nostr-simulator/simconfig"
	"github.com/cameri/nostr-simulator/simengine"
	"github.com/cameri/nostr-simulator/simlog"
	"github.com/cameri/nostr-simulator/simtime"
	"github.com/cameri/nostr-simulator/strategies"
)

const trafficEventType = "synthetic_traffic"

var spammyAuthors = map[string]bool{
	"spammer-1": true,
	"spammer-2": true,
}

func main() {
	cfg, err := simconfig.New(
		simconfig.WithDuration(120),
		simconfig.WithTimeStep(1),
		simconfig.WithRateLimit(3),
		simconfig.WithPowDifficulty(8),
		simconfig.WithTrustThreshold(0.5),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := simlog.New(os.Stderr, simlog.LevelWarn, "nostrsim-demo")

	eng := simengine.New(
		simengine.WithDuration(cfg.Simulation.Duration),
		simengine.WithTimeStep(cfg.Simulation.TimeStep),
		simengine.WithMetricsInterval(cfg.Metrics.CollectionInterval),
		simengine.WithEventLabeler(labelByAuthor),
		simengine.WithErrorLogger(logger),
	)

	eng.RegisterAntiSpamStrategy(strategies.NewRateLimiter(cfg.AntiSpam.RateLimitPerSec))
	eng.RegisterAntiSpamStrategy(strategies.NewProofOfWork(cfg.AntiSpam.PowDifficulty))
	eng.RegisterAntiSpamStrategy(strategies.NewWebOfTrust(cfg.AntiSpam.WotTrustThreshold, "alice", "bob"))

	gen := &trafficGenerator{rng: rand.New(rand.NewSource(42)), interval: 0.5}
	eng.RegisterHandler(trafficEventType, gen)

	if _, err := eng.ScheduleAt(0, trafficEventType, 0, simtime.Payload{}, "generator", ""); err != nil {
		fmt.Fprintln(os.Stderr, "failed to seed traffic generator:", err)
		os.Exit(1)
	}

	if err := eng.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "simulation ended with a fatal error:", err)
		os.Exit(1)
	}

	report := eng.Pipeline().Report(metrics.TimeSeries{}, metrics.CollectionInfo{
		CollectionInterval: cfg.Metrics.CollectionInterval,
	})

	data, err := report.MarshalArtifact(cfg.Metrics.OutputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to marshal report:", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
	fmt.Println()
}

func labelByAuthor(m antispam.Message) bool {
	return spammyAuthors[m.Author]
}

// trafficGenerator emits one synthetic message per tick and reschedules
// itself, alternating between honest and spammy authors.
type trafficGenerator struct {
	rng      *rand.Rand
	interval float64
	seq      int
}

func (g *trafficGenerator) CanHandle(eventType string) bool {
	return eventType == trafficEventType
}

func (g *trafficGenerator) Handle(e *simtime.Event) []simengine.ScheduleRequest {
	g.seq++

	author := "alice"
	if g.seq%3 == 0 {
		author = "spammer-1"
	} else if g.seq%5 == 0 {
		author = "bob"
	}

	msg := antispam.Message{
		ID:      antispam.MessageID(fmt.Sprintf("msg-%d", g.seq)),
		Kind:    "text_note",
		Author:  author,
		Content: fmt.Sprintf("synthetic message %d", g.seq),
	}

	payload := simtime.NewPayload(map[string]any{"message": msg})
	jitter := g.interval * (0.5 + g.rng.Float64())

	return []simengine.ScheduleRequest{
		{Delay: 0, Type: "nostr_message", Priority: 1, Payload: payload, Source: author},
		{Delay: jitter, Type: trafficEventType, Priority: 0},
	}
}
