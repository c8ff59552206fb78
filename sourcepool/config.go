package sourcepool

import (
	"time"

	"github.com/horizontalsystems/chainsync/config/types"
)

const (
	defaultMaxConsecutiveFailures = 3
	defaultBaseCooldown           = 5 * time.Second
	defaultMaxCooldown            = 5 * time.Minute
	defaultThrottleCooldown       = 10 * time.Second
	defaultHealthCheckInterval    = 15 * time.Second
	defaultLatencyEWMAAlpha       = 0.3
	defaultRequestTimeout         = 20 * time.Second
)

// Config of the pool of RPC endpoints of a blockchain
type Config struct {
	// MaxConsecutiveFailures is the amount of errors in a row that marks an endpoint as down
	MaxConsecutiveFailures int `mapstructure:"MaxConsecutiveFailures"`
	// BaseCooldown is the time an endpoint stays down the first time. It doubles on every new down
	BaseCooldown types.Duration `mapstructure:"BaseCooldown"`
	// MaxCooldown caps the cooldown of an endpoint that keeps failing
	MaxCooldown types.Duration `mapstructure:"MaxCooldown"`
	// ThrottleCooldown is the time an endpoint is skipped after a rate limit response
	ThrottleCooldown types.Duration `mapstructure:"ThrottleCooldown"`
	// HealthCheckInterval is the period of the probe of every endpoint
	HealthCheckInterval types.Duration `mapstructure:"HealthCheckInterval"`
	// MaxHeadLag is the amount of blocks an endpoint can be behind the best known head
	// before being deprioritized. 0 disables the check
	MaxHeadLag uint64 `mapstructure:"MaxHeadLag"`
	// LatencyEWMAAlpha is the weight of the last sample on the latency average
	LatencyEWMAAlpha float64 `mapstructure:"LatencyEWMAAlpha"`
	// RequestsPerSecond limits the requests sent to each endpoint. 0 means unlimited
	RequestsPerSecond float64 `mapstructure:"RequestsPerSecond"`
	// Burst is the bucket size of the per endpoint rate limiter
	Burst int `mapstructure:"Burst"`
	// RequestTimeout bounds every single request
	RequestTimeout types.Duration `mapstructure:"RequestTimeout"`
	// FailoverToOtherSources appends the endpoints of the other sources of the blockchain
	// after the ones of the selected source
	FailoverToOtherSources bool `mapstructure:"FailoverToOtherSources"`
}

func (c Config) withDefaults() Config {
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	if c.BaseCooldown.Duration <= 0 {
		c.BaseCooldown = types.NewDuration(defaultBaseCooldown)
	}
	if c.MaxCooldown.Duration < c.BaseCooldown.Duration {
		c.MaxCooldown = types.NewDuration(max(defaultMaxCooldown, c.BaseCooldown.Duration))
	}
	if c.ThrottleCooldown.Duration <= 0 {
		c.ThrottleCooldown = types.NewDuration(defaultThrottleCooldown)
	}
	if c.HealthCheckInterval.Duration <= 0 {
		c.HealthCheckInterval = types.NewDuration(defaultHealthCheckInterval)
	}
	if c.LatencyEWMAAlpha <= 0 || c.LatencyEWMAAlpha > 1 {
		c.LatencyEWMAAlpha = defaultLatencyEWMAAlpha
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = types.NewDuration(defaultRequestTimeout)
	}
	return c
}
