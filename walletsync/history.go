package walletsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-collections/collections/queue"
	"github.com/horizontalsystems/chainsync/db"
	"github.com/horizontalsystems/chainsync/explorer"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/sync"
)

const maxResultWindow = explorer.MaxResultWindow

// TxSource lists the transactions of an account
type TxSource interface {
	Transactions(
		ctx context.Context, address common.Address, startBlock, endBlock uint64, page, offset int,
	) ([]explorer.Transaction, error)
	PageSize() int
}

type blockRange struct {
	from uint64
	to   uint64
}

// History backfills the transactions of the accounts from the transaction source. It only stores
// blocks the processor already has, so reorgs of those blocks roll the history back too
type History struct {
	processor  *Processor
	source     TxSource
	accounts   []common.Address
	interval   time.Duration
	blockRange uint64
	log        *log.Logger
}

func newHistory(
	processor *Processor, source TxSource, accounts []common.Address, interval time.Duration, blockRange uint64,
) *History {
	return &History{
		processor:  processor,
		source:     source,
		accounts:   accounts,
		interval:   interval,
		blockRange: blockRange,
		log:        log.WithFields("module", "walletsync-history"),
	}
}

// Start runs the backfill now and then every interval until ctx is done
func (h *History) Start(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		if err := h.sync(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			h.log.Errorf("history backfill failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (h *History) sync(ctx context.Context) error {
	for _, account := range h.accounts {
		if err := h.syncAccount(ctx, account); err != nil {
			if errors.Is(err, explorer.ErrRateLimited) {
				h.log.Warnf("transaction source rate limited while syncing %s, retrying later", account.Hex())
				return nil
			}
			return fmt.Errorf("account %s: %w", account.Hex(), err)
		}
	}
	return nil
}

func (h *History) syncAccount(ctx context.Context, account common.Address) error {
	lastProcessed, err := h.processor.GetLastProcessedBlock(ctx)
	if errors.Is(err, sync.ErrNothingProcessed) {
		return nil
	}
	if err != nil {
		return err
	}
	var from uint64
	cursor, err := h.processor.GetExplorerCursor(ctx, account)
	switch {
	case err == nil:
		from = cursor + 1
	case !errors.Is(err, db.ErrNotFound):
		return err
	}
	if from > lastProcessed {
		return nil
	}

	ranges := queue.New()
	for start := from; start <= lastProcessed; start += h.blockRange {
		ranges.Enqueue(blockRange{from: start, to: min(start+h.blockRange-1, lastProcessed)})
	}
	for ranges.Len() > 0 {
		r := ranges.Dequeue().(blockRange) //nolint:forcetypeassert
		txs, err := h.fetchRange(ctx, account, r)
		if err != nil {
			return err
		}
		if err := h.processor.AddTransactions(ctx, account, txs, r.to); err != nil {
			return err
		}
		h.log.Debugf("stored %d transactions of %s until block %d", len(txs), account.Hex(), r.to)
	}
	return nil
}

// fetchRange pages through the range. A range with more results than the source returns for a
// query is split in two
func (h *History) fetchRange(ctx context.Context, account common.Address, r blockRange) ([]*Transaction, error) {
	pageSize := min(h.source.PageSize(), maxResultWindow)
	txs := []*Transaction{}
	for page := 1; ; page++ {
		if page*pageSize > maxResultWindow {
			if r.from == r.to {
				return nil, fmt.Errorf("more than %d transactions in block %d", maxResultWindow, r.from)
			}
			mid := r.from + (r.to-r.from)/2 //nolint:mnd
			first, err := h.fetchRange(ctx, account, blockRange{from: r.from, to: mid})
			if err != nil {
				return nil, err
			}
			second, err := h.fetchRange(ctx, account, blockRange{from: mid + 1, to: r.to})
			if err != nil {
				return nil, err
			}
			return append(first, second...), nil
		}
		res, err := h.source.Transactions(ctx, account, r.from, r.to, page, pageSize)
		if err != nil {
			return nil, err
		}
		for _, t := range res {
			txs = append(txs, &Transaction{
				Account:         account,
				Hash:            t.Hash,
				BlockNum:        t.BlockNumber,
				Timestamp:       t.Timestamp,
				Nonce:           t.Nonce,
				From:            t.From,
				To:              t.To,
				Value:           t.Value,
				GasUsed:         t.GasUsed,
				GasPrice:        t.GasPrice,
				IsError:         t.IsError,
				ContractAddress: t.ContractAddress,
			})
		}
		if len(res) < pageSize {
			return txs, nil
		}
	}
}
