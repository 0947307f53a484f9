package config

import "time"

// LimitsConfig bounds worker concurrency and outbound request rates.
type LimitsConfig struct {
	MaxWorkers           int    `yaml:"max_workers" json:"max_workers"`
	MinInterCallDelay    string `yaml:"min_inter_call_delay" json:"min_inter_call_delay"`
	MaxRequestsPerMinute int    `yaml:"max_requests_per_minute" json:"max_requests_per_minute"`
	MaxRetries           int    `yaml:"max_retries" json:"max_retries"`
	HTTPTimeout          string `yaml:"http_timeout" json:"http_timeout"`

	// Items held in_progress longer than this are eligible for recovery
	// back to pending.
	StuckTimeout string `yaml:"stuck_timeout" json:"stuck_timeout"`

	// Degraded provider latches auto-clear after this cool-down.
	// Zero means latches are sticky for the process lifetime.
	DegradedCooldown string `yaml:"degraded_cooldown" json:"degraded_cooldown"`
}

// DefaultLimitsConfig returns the default limits.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxWorkers:           5,
		MinInterCallDelay:    "1s",
		MaxRequestsPerMinute: 60,
		MaxRetries:           3,
		HTTPTimeout:          "30s",
		StuckTimeout:         "10m",
		DegradedCooldown:     "15m",
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// MinInterCallDelayDuration parses the inter-call delay, defaulting to 1s.
func (l LimitsConfig) MinInterCallDelayDuration() time.Duration {
	return parseDurationOr(l.MinInterCallDelay, time.Second)
}

// HTTPTimeoutDuration parses the HTTP timeout, defaulting to 30s.
func (l LimitsConfig) HTTPTimeoutDuration() time.Duration {
	return parseDurationOr(l.HTTPTimeout, 30*time.Second)
}

// StuckTimeoutDuration parses the stuck-item timeout, defaulting to 10m.
func (l LimitsConfig) StuckTimeoutDuration() time.Duration {
	return parseDurationOr(l.StuckTimeout, 10*time.Minute)
}

// DegradedCooldownDuration parses the degraded cool-down. Zero is a valid
// value and means the latch never auto-clears.
func (l LimitsConfig) DegradedCooldownDuration() time.Duration {
	d, err := time.ParseDuration(l.DegradedCooldown)
	if err != nil || d < 0 {
		return 15 * time.Minute
	}
	return d
}
