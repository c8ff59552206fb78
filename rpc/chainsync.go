package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/db"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/rpc/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CHAINSYNC is the namespace of the chainsync service
	CHAINSYNC = "chainsync"
	meterName = "github.com/horizontalsystems/chainsync/rpc"
)

// ChainSyncEndpoints contains implementations for the "chainsync" RPC endpoints
type ChainSyncEndpoints struct {
	logger       *log.Logger
	meter        metric.Meter
	readTimeout  time.Duration
	writeTimeout time.Duration
	testnet      bool
	syncer       ChainSyncer
	sources      SourceSelector
	wallets      map[blockchain.Type]WalletStorer
}

// NewChainSyncEndpoints returns ChainSyncEndpoints
func NewChainSyncEndpoints(
	logger *log.Logger,
	writeTimeout time.Duration,
	readTimeout time.Duration,
	testnet bool,
	syncer ChainSyncer,
	sources SourceSelector,
	wallets map[blockchain.Type]WalletStorer,
) *ChainSyncEndpoints {
	return &ChainSyncEndpoints{
		logger:       logger,
		meter:        otel.Meter(meterName),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		testnet:      testnet,
		syncer:       syncer,
		sources:      sources,
		wallets:      wallets,
	}
}

func (c *ChainSyncEndpoints) count(ctx context.Context, name string) {
	counter, err := c.meter.Int64Counter(name)
	if err != nil {
		c.logger.Warnf("failed to create %s counter: %s", name, err)
		return
	}
	counter.Add(ctx, 1)
}

func parseBlockchain(uid string) (blockchain.Type, rpc.Error) {
	bt, err := blockchain.ParseType(uid)
	if err != nil {
		return "", rpc.NewRPCError(rpc.DefaultErrorCode, err.Error())
	}
	return bt, nil
}

// Blockchains returns the blockchains being synced
// curl -X POST http://localhost:5576/ -H "Content-Type: application/json" \
// -d '{"method":"chainsync_blockchains", "params":[], "id":1}'
func (c *ChainSyncEndpoints) Blockchains() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "blockchains")

	res := []types.Blockchain{}
	for _, bt := range c.syncer.Blockchains() {
		res = append(res, types.Blockchain{
			UID:          bt.UID(),
			Name:         bt.Name(),
			ChainID:      bt.ChainID(c.testnet),
			NativeSymbol: bt.NativeSymbol(),
		})
	}
	return res, nil
}

// SyncSources returns every source of the blockchain flagging the selected one
func (c *ChainSyncEndpoints) SyncSources(uid string) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "sync_sources")

	bt, rerr := parseBlockchain(uid)
	if rerr != nil {
		return nil, rerr
	}
	all, err := c.sources.AllSyncSources(bt)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the sync sources of %s, error: %s", bt, err))
	}
	selected, err := c.sources.SyncSource(bt)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the sync source of %s, error: %s", bt, err))
	}
	res := make([]types.SyncSource, 0, len(all))
	for _, s := range all {
		res = append(res, types.SyncSource{EvmSyncSource: s, Selected: s.ID == selected.ID})
	}
	return res, nil
}

// SelectedSyncSource returns the source the blockchain syncs from
func (c *ChainSyncEndpoints) SelectedSyncSource(uid string) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "selected_sync_source")

	bt, rerr := parseBlockchain(uid)
	if rerr != nil {
		return nil, rerr
	}
	selected, err := c.sources.SyncSource(bt)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the sync source of %s, error: %s", bt, err))
	}
	return types.SyncSource{EvmSyncSource: selected, Selected: true}, nil
}

// SetSyncSource selects the source named name. The sync of the blockchain restarts on it
// curl -X POST http://localhost:5576/ -H "Content-Type: application/json" \
// -d '{"method":"chainsync_setSyncSource", "params":["ethereum", "MainNet HTTP"], "id":1}'
func (c *ChainSyncEndpoints) SetSyncSource(uid string, name string) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()
	c.count(ctx, "set_sync_source")

	bt, rerr := parseBlockchain(uid)
	if rerr != nil {
		return nil, rerr
	}
	all, err := c.sources.AllSyncSources(bt)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the sync sources of %s, error: %s", bt, err))
	}
	for _, s := range all {
		if s.Name != name {
			continue
		}
		if err := c.sources.Save(s, bt); err != nil {
			return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to save the sync source of %s, error: %s", bt, err))
		}
		c.logger.Infof("sync source of %s set to %s", bt, name)
		return types.SyncSource{EvmSyncSource: s, Selected: true}, nil
	}
	return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("%s has no sync source named %s", bt, name))
}

// Status returns the sync state of the blockchain
func (c *ChainSyncEndpoints) Status(uid string) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "status")

	bt, rerr := parseBlockchain(uid)
	if rerr != nil {
		return nil, rerr
	}
	status, err := c.syncer.Status(bt)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the status of %s, error: %s", bt, err))
	}
	return status, nil
}

// SourceHealth returns the state of the endpoints the blockchain syncs from
func (c *ChainSyncEndpoints) SourceHealth(uid string) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "source_health")

	bt, rerr := parseBlockchain(uid)
	if rerr != nil {
		return nil, rerr
	}
	health, err := c.syncer.Health(bt)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the source health of %s, error: %s", bt, err))
	}
	return health, nil
}

func (c *ChainSyncEndpoints) wallet(uid string) (WalletStorer, rpc.Error) {
	bt, rerr := parseBlockchain(uid)
	if rerr != nil {
		return nil, rerr
	}
	w, ok := c.wallets[bt]
	if !ok {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("%s is not synced", bt))
	}
	return w, nil
}

// Transfers returns the ERC-20 transfers of account between fromBlock and toBlock, both included
// curl -X POST http://localhost:5576/ -H "Content-Type: application/json" \
// -d '{"method":"chainsync_transfers", "params":["ethereum", "0x...", 0, 100], "id":1}'
func (c *ChainSyncEndpoints) Transfers(
	uid string, account common.Address, fromBlock uint64, toBlock uint64,
) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "transfers")

	if fromBlock > toBlock {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode,
			fmt.Sprintf("fromBlock %d is greater than toBlock %d", fromBlock, toBlock))
	}
	w, rerr := c.wallet(uid)
	if rerr != nil {
		return nil, rerr
	}
	transfers, err := w.GetTransfers(ctx, account, fromBlock, toBlock)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get transfers, error: %s", err))
	}
	return transfers, nil
}

// NativeBalance returns the last sampled native balance of account
func (c *ChainSyncEndpoints) NativeBalance(uid string, account common.Address) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "native_balance")

	w, rerr := c.wallet(uid)
	if rerr != nil {
		return nil, rerr
	}
	balance, err := w.GetNativeBalance(ctx, account)
	if errors.Is(err, db.ErrNotFound) {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("no balance of %s yet", account.Hex()))
	}
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get the balance, error: %s", err))
	}
	return balance, nil
}

// Transactions returns the history of account fetched from the explorer
func (c *ChainSyncEndpoints) Transactions(uid string, account common.Address) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	c.count(ctx, "transactions")

	w, rerr := c.wallet(uid)
	if rerr != nil {
		return nil, rerr
	}
	txs, err := w.GetTransactions(ctx, account)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get transactions, error: %s", err))
	}
	return txs, nil
}
