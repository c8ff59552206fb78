package engine

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/config/types"
	"github.com/horizontalsystems/chainsync/explorer"
	"github.com/horizontalsystems/chainsync/reorgdetector"
	"github.com/horizontalsystems/chainsync/sourcepool"
	"github.com/horizontalsystems/chainsync/sync"
	"github.com/horizontalsystems/chainsync/walletsync"
)

const (
	defaultRestartBackoffMin = time.Second
	defaultRestartBackoffMax = 5 * time.Minute
	defaultDataDir           = "./data"
)

// ChainConfig is the wallet watched on a blockchain
type ChainConfig struct {
	Blockchain blockchain.Type `mapstructure:"Blockchain"`
	// Accounts whose transfers, balances and history are synced
	Accounts []common.Address `mapstructure:"Accounts"`
	// Tokens restricts the ERC-20 transfers to these contracts. Empty means every token
	Tokens []common.Address `mapstructure:"Tokens"`
	// InitialBlockNum is the first block synced
	InitialBlockNum uint64 `mapstructure:"InitialBlockNum"`
	// BlockFinality overrides WalletSync.BlockFinality for this chain when set
	BlockFinality sync.BlockNumberFinality `mapstructure:"BlockFinality"`
}

// Config of the engine and the components it builds for every chain
type Config struct {
	// DataDir holds a directory per blockchain with its databases
	DataDir string `mapstructure:"DataDir"`
	// Testnet syncs the test networks. Endpoints reporting another chain id are rejected
	Testnet bool `mapstructure:"Testnet"`
	// RestartBackoffMin is the wait after the first failure of a chain. It doubles on
	// every failure in a row, up to RestartBackoffMax
	RestartBackoffMin types.Duration `mapstructure:"RestartBackoffMin"`
	RestartBackoffMax types.Duration `mapstructure:"RestartBackoffMax"`
	Chains            []ChainConfig  `mapstructure:"Chains"`

	SourcePool    sourcepool.Config    `mapstructure:"SourcePool"`
	ReorgDetector reorgdetector.Config `mapstructure:"ReorgDetector"`
	WalletSync    walletsync.Config    `mapstructure:"WalletSync"`
	Explorer      explorer.Config      `mapstructure:"Explorer"`
}

func (c Config) withDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.RestartBackoffMin.Duration <= 0 {
		c.RestartBackoffMin = types.NewDuration(defaultRestartBackoffMin)
	}
	if c.RestartBackoffMax.Duration < c.RestartBackoffMin.Duration {
		c.RestartBackoffMax = types.NewDuration(max(defaultRestartBackoffMax, c.RestartBackoffMin.Duration))
	}
	return c
}

// walletSyncConfig merges the settings of chain over the shared walletsync settings
func (c Config) walletSyncConfig(chain ChainConfig, dbPath string) walletsync.Config {
	cfg := c.WalletSync
	cfg.DBPath = dbPath
	cfg.Accounts = chain.Accounts
	cfg.Tokens = chain.Tokens
	cfg.InitialBlockNum = chain.InitialBlockNum
	if chain.BlockFinality != "" {
		cfg.BlockFinality = chain.BlockFinality
	}
	return cfg
}

// backoff returns the wait after the failures-th failure in a row
func (c Config) backoff(failures int) time.Duration {
	wait := c.RestartBackoffMin.Duration
	for i := 1; i < failures && wait < c.RestartBackoffMax.Duration; i++ {
		wait *= 2
	}
	return min(wait, c.RestartBackoffMax.Duration)
}
