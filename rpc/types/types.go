package types

import (
	"github.com/horizontalsystems/chainsync/syncsource"
)

// Blockchain describes a synced blockchain
type Blockchain struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	ChainID      uint64 `json:"chainId"`
	NativeSymbol string `json:"nativeSymbol"`
}

// SyncSource is a source of a blockchain and whether it is the selected one
type SyncSource struct {
	syncsource.EvmSyncSource
	Selected bool `json:"selected"`
}
