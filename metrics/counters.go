package metrics

// Confusion holds the four-way classification counts for one strategy (or
// the overall aggregate across all strategies).
type Confusion struct {
	TP, TN, FP, FN int
}

// Precision returns TP/(TP+FP), or 0 if the denominator is zero.
func (c Confusion) Precision() float64 {
	d := c.TP + c.FP
	if d == 0 {
		return 0
	}
	return float64(c.TP) / float64(d)
}

// Recall returns TP/(TP+FN), or 0 if the denominator is zero.
func (c Confusion) Recall() float64 {
	d := c.TP + c.FN
	if d == 0 {
		return 0
	}
	return float64(c.TP) / float64(d)
}

// F1 returns the harmonic mean of Precision and Recall, or 0 if both are
// zero.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Accuracy returns (TP+TN)/(TP+TN+FP+FN), or 0 if the denominator is zero.
func (c Confusion) Accuracy() float64 {
	d := c.TP + c.TN + c.FP + c.FN
	if d == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(d)
}

// SpamReduction tracks admitted/blocked counts for spam and legitimate
// traffic, used to derive spam-reduction and legit-pass-rate percentages.
type SpamReduction struct {
	TotalSpam    int
	BlockedSpam  int
	AllowedSpam  int
	TotalLegit   int
	BlockedLegit int
}

// SpamReductionPct returns BlockedSpam/TotalSpam * 100, or 0 if TotalSpam
// is zero.
func (s SpamReduction) SpamReductionPct() float64 {
	if s.TotalSpam == 0 {
		return 0
	}
	return float64(s.BlockedSpam) / float64(s.TotalSpam) * 100
}

// LegitPassRate returns (TotalLegit-BlockedLegit)/TotalLegit * 100, or 0
// if TotalLegit is zero.
func (s SpamReduction) LegitPassRate() float64 {
	if s.TotalLegit == 0 {
		return 0
	}
	return float64(s.TotalLegit-s.BlockedLegit) / float64(s.TotalLegit) * 100
}

// recordDecision folds one labeled, decided message into both a Confusion
// and its paired SpamReduction, following the 2x2 in the evaluation
// protocol: blocked iff !allowed, isSpam iff the ground-truth label.
func recordDecision(c *Confusion, s *SpamReduction, isSpam, allowed bool) {
	blocked := !allowed
	switch {
	case isSpam && blocked:
		c.TP++
		s.TotalSpam++
		s.BlockedSpam++
	case isSpam && !blocked:
		c.FN++
		s.TotalSpam++
		s.AllowedSpam++
	case !isSpam && blocked:
		c.FP++
		s.TotalLegit++
		s.BlockedLegit++
	case !isSpam && !blocked:
		c.TN++
		s.TotalLegit++
	}
}
