package simconfig

// Option mutates a Config during construction. Options apply in the
// order given to New and are not individually validated; New validates
// the fully-assembled Config once, after every option has applied.
type Option interface {
	applyConfig(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) applyConfig(c *Config) { f(c) }

// WithDuration sets simulation.duration.
func WithDuration(seconds float64) Option {
	return optionFunc(func(c *Config) { c.Simulation.Duration = seconds })
}

// WithTimeStep sets simulation.timeStep.
func WithTimeStep(seconds float64) Option {
	return optionFunc(func(c *Config) { c.Simulation.TimeStep = seconds })
}

// WithRandomSeed pins simulation.randomSeed for reproducible runs.
func WithRandomSeed(seed int64) Option {
	return optionFunc(func(c *Config) { c.Simulation.RandomSeed = &seed })
}

// WithMaxEvents caps simulation.maxEvents.
func WithMaxEvents(n int) Option {
	return optionFunc(func(c *Config) { c.Simulation.MaxEvents = &n })
}

// WithEnabledStrategies replaces antispam.enabledStrategies.
func WithEnabledStrategies(names ...string) Option {
	return optionFunc(func(c *Config) { c.AntiSpam.EnabledStrategies = names })
}

// WithPowDifficulty sets antispam.powDifficulty.
func WithPowDifficulty(difficulty int) Option {
	return optionFunc(func(c *Config) { c.AntiSpam.PowDifficulty = difficulty })
}

// WithRateLimit sets antispam.rateLimitPerSecond.
func WithRateLimit(perSecond float64) Option {
	return optionFunc(func(c *Config) { c.AntiSpam.RateLimitPerSec = perSecond })
}

// WithTrustThreshold sets antispam.wotTrustThreshold.
func WithTrustThreshold(threshold float64) Option {
	return optionFunc(func(c *Config) { c.AntiSpam.WotTrustThreshold = threshold })
}

// WithSybilAttack toggles the Sybil-identity attack scenario.
func WithSybilAttack(enabled bool, identitiesPerAttacker int) Option {
	return optionFunc(func(c *Config) {
		c.Attacks.SybilAttackEnabled = enabled
		c.Attacks.SybilIdentitiesPerAttack = identitiesPerAttacker
	})
}

// WithBurstSpam toggles the burst-spam attack scenario.
func WithBurstSpam(enabled bool, rate, duration float64) Option {
	return optionFunc(func(c *Config) {
		c.Attacks.BurstSpamEnabled = enabled
		c.Attacks.BurstSpamRate = rate
		c.Attacks.BurstDuration = duration
	})
}

// WithReplayAttack toggles the replay-attack scenario.
func WithReplayAttack(enabled bool) Option {
	return optionFunc(func(c *Config) { c.Attacks.ReplayAttackEnabled = enabled })
}

// WithOfflineAbuse toggles the offline-abuse scenario.
func WithOfflineAbuse(enabled bool) Option {
	return optionFunc(func(c *Config) { c.Attacks.OfflineAbuseEnabled = enabled })
}

// WithMetricsEnabled toggles metrics collection entirely.
func WithMetricsEnabled(enabled bool) Option {
	return optionFunc(func(c *Config) { c.Metrics.Enabled = enabled })
}

// WithCollectionInterval sets metrics.collectionInterval.
func WithCollectionInterval(seconds float64) Option {
	return optionFunc(func(c *Config) { c.Metrics.CollectionInterval = seconds })
}

// WithOutputFormat sets metrics.outputFormat.
func WithOutputFormat(format string) Option {
	return optionFunc(func(c *Config) { c.Metrics.OutputFormat = format })
}

// WithOutputFile sets metrics.outputFile.
func WithOutputFile(path string) Option {
	return optionFunc(func(c *Config) { c.Metrics.OutputFile = path })
}

// WithRelayLoadWindow sets the sliding-window sample count used for
// relay-load metrics.
func WithRelayLoadWindow(n int) Option {
	return optionFunc(func(c *Config) { c.Metrics.RelayLoadWindow = n })
}
