package reorgdetector

import (
	"time"

	"github.com/horizontalsystems/chainsync/config/types"
)

const (
	defaultCheckReorgsInterval = 2 * time.Second
	defaultFinalityDepth       = 64
)

// Config is the configuration for the reorg detector
type Config struct {
	// DBPath is the path to the database
	DBPath string `mapstructure:"DBPath"`

	// CheckReorgsInterval is the interval to check for reorgs in tracked blocks
	CheckReorgsInterval types.Duration `mapstructure:"CheckReorgsInterval"`

	// FinalityDepth is used to derive the finalized block (head - FinalityDepth) on nodes
	// that do not support the finalized tag
	FinalityDepth uint64 `mapstructure:"FinalityDepth"`
}

// GetCheckReorgsInterval returns the interval to check for reorgs in tracked blocks
func (c *Config) GetCheckReorgsInterval() time.Duration {
	if c.CheckReorgsInterval.Duration == 0 {
		return defaultCheckReorgsInterval
	}

	return c.CheckReorgsInterval.Duration
}

// GetFinalityDepth returns the configured finality depth or its default
func (c *Config) GetFinalityDepth() uint64 {
	if c.FinalityDepth == 0 {
		return defaultFinalityDepth
	}

	return c.FinalityDepth
}
