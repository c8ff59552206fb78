package explorer

import (
	"time"

	"github.com/horizontalsystems/chainsync/config/types"
)

const (
	defaultRequestsPerSecond = 4
	defaultCacheTTL          = 30 * time.Second
	defaultRequestTimeout    = 10 * time.Second
	defaultPageSize          = 1000

	// MaxResultWindow is the most results the API returns for a query (page * offset)
	MaxResultWindow = 10000
)

// Config of the transaction source client
type Config struct {
	// RequestsPerSecond is the rate allowed by the explorer API key
	RequestsPerSecond float64 `mapstructure:"RequestsPerSecond"`
	// CacheTTL is how long a response is served from memory
	CacheTTL types.Duration `mapstructure:"CacheTTL"`
	// RequestTimeout applies when the caller context has no deadline
	RequestTimeout types.Duration `mapstructure:"RequestTimeout"`
	// PageSize is the offset parameter of paged requests, at most MaxResultWindow
	PageSize int `mapstructure:"PageSize"`
}

func (c Config) withDefaults() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.CacheTTL.Duration <= 0 {
		c.CacheTTL = types.NewDuration(defaultCacheTTL)
	}
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = types.NewDuration(defaultRequestTimeout)
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	c.PageSize = min(c.PageSize, MaxResultWindow)
	return c
}
