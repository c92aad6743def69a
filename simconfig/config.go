// Package simconfig is the simulator's configuration type: nested,
// validated-at-construction config groups plus YAML (de)serialization.
// It is deliberately not a CLI flag parser or an environment-variable
// loader; it is the typed object those outer layers would populate.
package simconfig

// SimulationConfig holds the core run parameters.
type SimulationConfig struct {
	Duration   float64 `yaml:"duration"`
	TimeStep   float64 `yaml:"timeStep"`
	RandomSeed *int64  `yaml:"randomSeed,omitempty"`
	MaxEvents  *int    `yaml:"maxEvents,omitempty"`
}

// AntiSpamConfig holds anti-spam strategy knobs. Strategy implementations
// themselves live outside this package (see package strategies); this is
// only their construction-time configuration.
type AntiSpamConfig struct {
	EnabledStrategies []string `yaml:"enabledStrategies"`
	PowDifficulty     int      `yaml:"powDifficulty"`
	RateLimitPerSec   float64  `yaml:"rateLimitPerSecond"`
	WotTrustThreshold float64  `yaml:"wotTrustThreshold"`
}

// AttackConfig holds adversary-scenario toggles and parameters.
type AttackConfig struct {
	SybilAttackEnabled       bool    `yaml:"sybilAttackEnabled"`
	BurstSpamEnabled         bool    `yaml:"burstSpamEnabled"`
	ReplayAttackEnabled      bool    `yaml:"replayAttackEnabled"`
	OfflineAbuseEnabled      bool    `yaml:"offlineAbuseEnabled"`
	SybilIdentitiesPerAttack int     `yaml:"sybilIdentitiesPerAttacker"`
	BurstSpamRate            float64 `yaml:"burstSpamRate"`
	BurstDuration            float64 `yaml:"burstDuration"`
}

// MetricsConfig holds metrics collection and export settings.
type MetricsConfig struct {
	Enabled            bool    `yaml:"enabled"`
	CollectionInterval float64 `yaml:"collectionInterval"`
	OutputFormat       string  `yaml:"outputFormat"`
	OutputFile         string  `yaml:"outputFile,omitempty"`
	RelayLoadWindow    int     `yaml:"relayLoadWindow,omitempty"`
}

// Config is the top-level, validated simulator configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	AntiSpam   AntiSpamConfig   `yaml:"antispam"`
	Attacks    AttackConfig     `yaml:"attacks"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

var validOutputFormats = map[string]bool{"json": true, "csv": true, "yaml": true}

// New builds a Config from defaults plus the given options, validating
// the result and returning the first configuration error encountered, in
// the order fields are documented in this package.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Simulation: SimulationConfig{
			Duration: 3600,
			TimeStep: 1.0,
		},
		AntiSpam: AntiSpamConfig{
			EnabledStrategies: []string{"rate_limiting"},
			PowDifficulty:     4,
			RateLimitPerSec:   1.0,
			WotTrustThreshold: 0.5,
		},
		Attacks: AttackConfig{
			SybilIdentitiesPerAttack: 10,
			BurstSpamRate:            10.0,
			BurstDuration:            60.0,
		},
		Metrics: MetricsConfig{
			Enabled:            true,
			CollectionInterval: 10.0,
			OutputFormat:       "json",
			RelayLoadWindow:    100,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt.applyConfig(cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.Duration <= 0 {
		return &InvalidDurationError{Value: c.Simulation.Duration}
	}
	if c.Simulation.TimeStep <= 0 {
		return &InvalidTimeStepError{Value: c.Simulation.TimeStep}
	}
	if c.AntiSpam.WotTrustThreshold < 0 || c.AntiSpam.WotTrustThreshold > 1 {
		return &InvalidTrustThresholdError{Value: c.AntiSpam.WotTrustThreshold}
	}
	if c.Metrics.CollectionInterval <= 0 {
		return &InvalidIntervalError{Value: c.Metrics.CollectionInterval}
	}
	if !validOutputFormats[c.Metrics.OutputFormat] {
		return &InvalidOutputFormatError{Value: c.Metrics.OutputFormat}
	}
	return nil
}
