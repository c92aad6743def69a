package metrics

import "strings"

// offlinePrefix is the literal prefix identifying attack types the
// resilience tracker counts as "offline" detections/misses.
const offlinePrefix = "offline_"

// AttackRecord is one immutable entry in the attack timeline.
type AttackRecord struct {
	Type     string
	Detected bool
	Time     float64
}

// Resilience accumulates attack-detection, recovery-time, and adaptive-
// response tracking for a run.
type Resilience struct {
	timeline        []AttackRecord
	offlineDetected int
	offlineMissed   int

	recoverySeconds map[string]float64
	recoveryStart   map[string]float64

	sybilResistanceScore float64
	adaptiveResponses    int
}

func newResilience() *Resilience {
	return &Resilience{
		recoverySeconds: make(map[string]float64),
		recoveryStart:   make(map[string]float64),
	}
}

// RecordAttack appends an entry to the immutable timeline and, for attack
// types beginning with "offline_", increments the detected/missed
// counters.
func (r *Resilience) RecordAttack(attackType string, detected bool, t float64) {
	r.timeline = append(r.timeline, AttackRecord{Type: attackType, Detected: detected, Time: t})
	if strings.HasPrefix(attackType, offlinePrefix) {
		if detected {
			r.offlineDetected++
		} else {
			r.offlineMissed++
		}
	}
}

// StartRecovery marks the beginning of a recovery window for attackType at
// wall-clock-equivalent time t (caller's real-time reading).
func (r *Resilience) StartRecovery(attackType string, t float64) {
	r.recoveryStart[attackType] = t
}

// EndRecovery closes a recovery window started by StartRecovery, adding
// its duration to the accumulated total for attackType. A call with no
// matching start is a no-op.
func (r *Resilience) EndRecovery(attackType string, t float64) {
	start, ok := r.recoveryStart[attackType]
	if !ok {
		return
	}
	delete(r.recoveryStart, attackType)
	if d := t - start; d > 0 {
		r.recoverySeconds[attackType] += d
	}
}

// UpdateSybilResistanceScore stores x clamped to [0,1].
func (r *Resilience) UpdateSybilResistanceScore(x float64) {
	switch {
	case x < 0:
		x = 0
	case x > 1:
		x = 1
	}
	r.sybilResistanceScore = x
}

// RecordAdaptiveResponse increments the adaptive-response counter.
func (r *Resilience) RecordAdaptiveResponse() {
	r.adaptiveResponses++
}

// ResilienceSnapshot is a value-copy snapshot of Resilience state.
type ResilienceSnapshot struct {
	Timeline              []AttackRecord
	OfflineDetected       int
	OfflineMissed         int
	RecoverySeconds       map[string]float64
	SybilResistanceScore  float64
	AdaptiveResponseCount int
}

func (r *Resilience) snapshot() ResilienceSnapshot {
	timeline := make([]AttackRecord, len(r.timeline))
	copy(timeline, r.timeline)

	recovery := make(map[string]float64, len(r.recoverySeconds))
	for k, v := range r.recoverySeconds {
		recovery[k] = v
	}

	return ResilienceSnapshot{
		Timeline:              timeline,
		OfflineDetected:       r.offlineDetected,
		OfflineMissed:         r.offlineMissed,
		RecoverySeconds:       recovery,
		SybilResistanceScore:  r.sybilResistanceScore,
		AdaptiveResponseCount: r.adaptiveResponses,
	}
}
