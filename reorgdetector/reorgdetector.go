package reorgdetector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/horizontalsystems/chainsync/db"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/reorgdetector/migrations"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotSubscribed = errors.New("id not found in subscriptions")
)

type EthClient interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type ReorgDetector struct {
	client             EthClient
	db                 *sql.DB
	checkReorgInterval time.Duration
	finalityDepth      uint64
	log                *log.Logger

	trackedBlocksLock sync.RWMutex
	trackedBlocks     map[string]*headersList

	subscriptionsLock sync.RWMutex
	subscriptions     map[string]*Subscription

	// notifiedReorgs holds, per subscriber, the hash of the tracked block each
	// acknowledged reorg was notified for
	notifiedReorgsLock sync.RWMutex
	notifiedReorgs     map[string]map[uint64]common.Hash
}

// New opens the tracked blocks database and loads what was tracked before a restart
func New(client EthClient, cfg Config) (*ReorgDetector, error) {
	if err := migrations.RunMigrations(cfg.DBPath); err != nil {
		return nil, err
	}
	sqlDB, err := db.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	rd := &ReorgDetector{
		client:             client,
		db:                 sqlDB,
		checkReorgInterval: cfg.GetCheckReorgsInterval(),
		finalityDepth:      cfg.GetFinalityDepth(),
		log:                log.WithFields("module", "reorgdetector"),
		subscriptions:      make(map[string]*Subscription),
		notifiedReorgs:     make(map[string]map[uint64]common.Hash),
	}

	rd.trackedBlocks, err = rd.getTrackedBlocks()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to load tracked blocks: %w", err)
	}

	return rd, nil
}

// Start checks the tracked blocks every CheckReorgsInterval until ctx is done
func (rd *ReorgDetector) Start(ctx context.Context) error {
	ticker := time.NewTicker(rd.checkReorgInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := rd.detectReorgInTrackedList(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				rd.log.Errorf("failed to detect reorg in tracked list: %v", err)
			}
		}
	}
}

// Close releases the database
func (rd *ReorgDetector) Close() error {
	return rd.db.Close()
}

// AddBlockToTrack persists the block so it is compared against the remote chain
func (rd *ReorgDetector) AddBlockToTrack(ctx context.Context, id string, num uint64, hash common.Hash) error {
	rd.subscriptionsLock.RLock()
	_, ok := rd.subscriptions[id]
	rd.subscriptionsLock.RUnlock()
	if !ok {
		return ErrNotSubscribed
	}

	if err := rd.saveTrackedBlock(ctx, id, header{Num: num, Hash: hash}); err != nil {
		return err
	}

	rd.notifiedReorgsLock.Lock()
	delete(rd.notifiedReorgs[id], num)
	rd.notifiedReorgsLock.Unlock()

	return nil
}

// detectReorgInTrackedList compares the tracked blocks of every subscriber with the remote chain
func (rd *ReorgDetector) detectReorgInTrackedList(ctx context.Context) error {
	finalized, err := rd.finalizedBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get the finalized block: %w", err)
	}

	headers := newHeaderCache(rd.client)

	rd.subscriptionsLock.RLock()
	ids := make([]string, 0, len(rd.subscriptions))
	for id := range rd.subscriptions {
		ids = append(ids, id)
	}
	rd.subscriptionsLock.RUnlock()

	errGroup, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		errGroup.Go(func() error {
			if err := rd.checkSubscriber(gctx, id, finalized, headers); err != nil {
				return fmt.Errorf("subscriber %s: %w", id, err)
			}
			return nil
		})
	}

	return errGroup.Wait()
}

func (rd *ReorgDetector) checkSubscriber(ctx context.Context, id string, finalized uint64, headers *headerCache) error {
	rd.trackedBlocksLock.RLock()
	hdrs, ok := rd.trackedBlocks[id]
	var sorted []header
	if ok {
		sorted = hdrs.getSorted()
	}
	rd.trackedBlocksLock.RUnlock()

	for i, hdr := range sorted {
		remote, err := headers.get(ctx, hdr.Num)
		switch {
		case errors.Is(err, ethereum.NotFound):
			// the block is gone from the remote chain
			rd.log.Warnf("tracked block %d of %s not found on the remote chain", hdr.Num, id)
		case err != nil:
			return err
		case remote.Hash() == hdr.Hash:
			continue
		}

		if rd.alreadyNotified(id, hdr) {
			break
		}
		rd.log.Infof("reorg detected for %s at block %d, tracked hash %s", id, hdr.Num, hdr.Hash.Hex())
		processed, err := rd.notifySubscriber(ctx, id, hdr)
		if err != nil {
			return err
		}
		if !processed {
			rd.log.Warnf("reorg at block %d was not processed by %s, it will be notified again", hdr.Num, id)
			return nil
		}
		// the subscriber may have tracked blocks of the new chain already, only the ones
		// known before the notification are removed
		if err := rd.removeOrphanedBlocks(ctx, id, sorted[i:]); err != nil {
			return err
		}
		break
	}

	if err := rd.removeFinalizedBlocks(ctx, id, finalized); err != nil {
		return err
	}
	rd.pruneNotifiedReorgs(id, finalized)

	return nil
}

// finalizedBlock returns the finalized block of the remote chain, falling back to
// head - finalityDepth when the node does not know the finalized tag
func (rd *ReorgDetector) finalizedBlock(ctx context.Context) (uint64, error) {
	hdr, err := rd.client.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err == nil && hdr != nil {
		return hdr.Number.Uint64(), nil
	}
	rd.log.Debugf("finalized tag not available (%v), using head - %d", err, rd.finalityDepth)

	head, err := rd.client.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	if head < rd.finalityDepth {
		return 0, nil
	}

	return head - rd.finalityDepth, nil
}

// headerCache shares the remote headers between the subscribers of a single check
type headerCache struct {
	client  EthClient
	mu      sync.Mutex
	headers map[uint64]*types.Header
}

func newHeaderCache(client EthClient) *headerCache {
	return &headerCache{client: client, headers: make(map[uint64]*types.Header)}
}

func (c *headerCache) get(ctx context.Context, num uint64) (*types.Header, error) {
	c.mu.Lock()
	hdr, ok := c.headers[num]
	c.mu.Unlock()
	if ok {
		return hdr, nil
	}

	hdr, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(num))
	if err != nil {
		return nil, err
	}
	if hdr == nil {
		return nil, ethereum.NotFound
	}

	c.mu.Lock()
	c.headers[num] = hdr
	c.mu.Unlock()

	return hdr, nil
}
