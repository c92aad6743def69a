package strategies

import (
	"sync"

	"github.com/cameri/nostr-simulator/antispam"
)

// WebOfTrust gates messages on an author's accumulated trust score,
// computed from a seed set of operator-trusted authors plus an
// attestation graph (author -> authors it vouches for). UpdateState
// lets an admitted author raise the trust of authors it tags with a
// "vouch_for" entry, approximating web-of-trust propagation without
// computing full graph centrality per event.
type WebOfTrust struct {
	threshold float64

	mu       sync.Mutex
	trust    map[string]float64
	accepted int
	rejected int
}

// NewWebOfTrust builds a WebOfTrust strategy that admits messages from
// authors whose trust score is >= threshold. seedTrusted authors start
// at trust 1.0; everyone else starts at 0.
func NewWebOfTrust(threshold float64, seedTrusted ...string) *WebOfTrust {
	trust := make(map[string]float64, len(seedTrusted))
	for _, a := range seedTrusted {
		trust[a] = 1.0
	}
	return &WebOfTrust{threshold: threshold, trust: trust}
}

func (w *WebOfTrust) Name() string { return "web_of_trust" }

func (w *WebOfTrust) Evaluate(m antispam.Message, t float64) antispam.StrategyResult {
	w.mu.Lock()
	score := w.trust[m.Author]
	w.mu.Unlock()

	if score >= w.threshold {
		return antispam.StrategyResult{
			Allowed: true,
			Reason:  "trust score above threshold",
			Metrics: map[string]float64{"trust_score": score},
		}
	}
	return antispam.StrategyResult{
		Allowed: false,
		Reason:  "trust score below threshold",
		Metrics: map[string]float64{"trust_score": score},
	}
}

func (w *WebOfTrust) UpdateState(m antispam.Message, t float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accepted++

	for _, vouched := range m.Tags["vouch_for"] {
		if w.trust[vouched] < 0.5 {
			w.trust[vouched] = 0.5
		}
	}
}

func (w *WebOfTrust) ResetMetrics() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accepted, w.rejected = 0, 0
}

func (w *WebOfTrust) Metrics() map[string]float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]float64{
		"accepted":      float64(w.accepted),
		"known_authors": float64(len(w.trust)),
	}
}
