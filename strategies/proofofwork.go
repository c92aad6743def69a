package strategies

import (
	"crypto/sha256"
	"sync"

	"github.com/cameri/nostr-simulator/antispam"
)

// ProofOfWork gates messages on a leading-zero-bit proof-of-work puzzle
// over the message id, mirroring NIP-13-style difficulty gating. The
// simulator does not mine; Evaluate checks whether the message already
// carries a "nonce" tag satisfying the configured difficulty, the way a
// relay checks a submitted event rather than generating one.
type ProofOfWork struct {
	difficulty int

	mu       sync.Mutex
	accepted int
	rejected int
}

// NewProofOfWork builds a ProofOfWork strategy requiring at least
// difficulty leading zero bits in sha256(id + ":" + nonce).
func NewProofOfWork(difficulty int) *ProofOfWork {
	if difficulty < 0 {
		difficulty = 0
	}
	return &ProofOfWork{difficulty: difficulty}
}

func (p *ProofOfWork) Name() string { return "proof_of_work" }

func (p *ProofOfWork) Evaluate(m antispam.Message, t float64) antispam.StrategyResult {
	nonce := firstTag(m, "nonce")
	bits := leadingZeroBits(string(m.ID), nonce)

	cost := float64(1) << uint(min(p.difficulty, 30))

	if bits >= p.difficulty {
		return antispam.StrategyResult{
			Allowed:           true,
			Reason:            "proof of work satisfied",
			ComputationalCost: cost,
			Metrics:           map[string]float64{"leading_zero_bits": float64(bits)},
		}
	}
	return antispam.StrategyResult{
		Allowed:           false,
		Reason:            "insufficient proof of work",
		ComputationalCost: cost,
		Metrics:           map[string]float64{"leading_zero_bits": float64(bits)},
	}
}

func (p *ProofOfWork) UpdateState(m antispam.Message, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accepted++
}

func (p *ProofOfWork) ResetMetrics() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accepted, p.rejected = 0, 0
}

func (p *ProofOfWork) Metrics() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]float64{
		"accepted":   float64(p.accepted),
		"difficulty": float64(p.difficulty),
	}
}

func firstTag(m antispam.Message, key string) string {
	if vs, ok := m.Tags[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func leadingZeroBits(id, nonce string) int {
	h := sha256.Sum256([]byte(id + ":" + nonce))
	var n int
	for _, b := range h {
		if b == 0 {
			n += 8
			continue
		}
		n += leadingZerosByte(b)
		break
	}
	return n
}

func leadingZerosByte(b byte) int {
	var n int
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}
