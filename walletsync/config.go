package walletsync

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/config/types"
	"github.com/horizontalsystems/chainsync/sync"
)

const (
	defaultSyncBlockChunkSize = 1000
	defaultDownloadBufferSize = 100
	defaultHistoryBlockRange  = 100000
	defaultHistoryInterval    = time.Minute
)

type Config struct {
	// DBPath path of the DB
	DBPath string `mapstructure:"DBPath"`
	// BlockFinality indicates the status of the blocks that will be queried in order to sync
	BlockFinality sync.BlockNumberFinality `jsonschema:"enum=LatestBlock, enum=SafeBlock, enum=PendingBlock, enum=FinalizedBlock, enum=EarliestBlock" mapstructure:"BlockFinality"` //nolint:lll
	// InitialBlockNum is the first block that will be queried when starting the synchronization from scratch
	InitialBlockNum uint64 `mapstructure:"InitialBlockNum"`
	// SyncBlockChunkSize is the amount of blocks whose logs are requested at once
	SyncBlockChunkSize uint64 `mapstructure:"SyncBlockChunkSize"`
	// Accounts are the watched wallet addresses
	Accounts []common.Address `mapstructure:"Accounts"`
	// Tokens restricts the transfers to these contracts. Empty means any contract
	Tokens []common.Address `mapstructure:"Tokens"`
	// RetryAfterErrorPeriod is the time that will be waited when an unexpected error happens before retry
	RetryAfterErrorPeriod types.Duration `mapstructure:"RetryAfterErrorPeriod"`
	// MaxRetryAttemptsAfterError is the maximum number of consecutive attempts before the syncer fails.
	// Any number smaller than one will be considered as unlimited retries
	MaxRetryAttemptsAfterError int `mapstructure:"MaxRetryAttemptsAfterError"`
	// WaitForNewBlocksPeriod time that will be waited when the synchronizer has reached the latest block
	WaitForNewBlocksPeriod types.Duration `mapstructure:"WaitForNewBlocksPeriod"`
	// DownloadBufferSize buffer of blocks to be processed. When reached the download pauses until the processing catches up
	DownloadBufferSize int `mapstructure:"DownloadBufferSize"`
	// HistoryInterval is the period of the transaction history backfill
	HistoryInterval types.Duration `mapstructure:"HistoryInterval"`
	// HistoryBlockRange is the block range requested at once to the transaction source
	HistoryBlockRange uint64 `mapstructure:"HistoryBlockRange"`
}

func (c Config) withDefaults() Config {
	if c.SyncBlockChunkSize == 0 {
		c.SyncBlockChunkSize = defaultSyncBlockChunkSize
	}
	if c.DownloadBufferSize <= 0 {
		c.DownloadBufferSize = defaultDownloadBufferSize
	}
	if c.HistoryBlockRange == 0 {
		c.HistoryBlockRange = defaultHistoryBlockRange
	}
	if c.HistoryInterval.Duration <= 0 {
		c.HistoryInterval = types.NewDuration(defaultHistoryInterval)
	}
	return c
}
