package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/sourcepool"
	"github.com/horizontalsystems/chainsync/sync"
	"github.com/horizontalsystems/chainsync/syncsource"
	"github.com/horizontalsystems/chainsync/walletsync"
)

type ChainSyncer interface {
	Blockchains() []blockchain.Type
	Status(bt blockchain.Type) (sync.Status, error)
	Health(bt blockchain.Type) ([]sourcepool.EndpointHealth, error)
}

type SourceSelector interface {
	AllSyncSources(bt blockchain.Type) ([]syncsource.EvmSyncSource, error)
	SyncSource(bt blockchain.Type) (syncsource.EvmSyncSource, error)
	Save(source syncsource.EvmSyncSource, bt blockchain.Type) error
}

type WalletStorer interface {
	GetTransfers(ctx context.Context, account common.Address, fromBlock, toBlock uint64) ([]*walletsync.Transfer, error)
	GetNativeBalance(ctx context.Context, account common.Address) (*walletsync.Balance, error)
	GetTransactions(ctx context.Context, account common.Address) ([]*walletsync.Transaction, error)
}
