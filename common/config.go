package common

import "github.com/horizontalsystems/chainsync/config/types"

// Config affects all the components
type Config struct {
	// Testnet selects the testnet variant of the default sync sources and chain ids
	Testnet bool `mapstructure:"Testnet"`
	// PathRWData is the folder where every sqlite file is created
	PathRWData string `mapstructure:"PathRWData"`
	// ShutdownTimeout is the time given to the components to stop once a signal is received
	ShutdownTimeout types.Duration `mapstructure:"ShutdownTimeout"`
}
