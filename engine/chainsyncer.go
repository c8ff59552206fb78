package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/explorer"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/reorgdetector"
	"github.com/horizontalsystems/chainsync/sourcepool"
	"github.com/horizontalsystems/chainsync/sync"
	"github.com/horizontalsystems/chainsync/syncsource"
	"github.com/horizontalsystems/chainsync/walletsync"
	"golang.org/x/sync/errgroup"
)

const (
	walletSyncDBName    = "walletsync.sqlite"
	reorgDetectorDBName = "reorgdetector.sqlite"
	dirPermissions      = 0o755
)

var errSourceChanged = errors.New("sync source changed")

// the pool client is the only node client of a round
var (
	_ walletsync.EthClienter  = (*sourcepool.Client)(nil)
	_ reorgdetector.EthClient = (*sourcepool.Client)(nil)
)

// SourceManager resolves the sources of the blockchains
type SourceManager interface {
	SyncSource(bt blockchain.Type) (syncsource.EvmSyncSource, error)
	AllSyncSources(bt blockchain.Type) ([]syncsource.EvmSyncSource, error)
	Subscribe() *syncsource.Subscription
	Unsubscribe(sub *syncsource.Subscription)
}

// ChainSyncer keeps a blockchain in sync. Every round runs on the source selected when the round
// starts. Rounds end when the selection changes or the sync fails
type ChainSyncer struct {
	bt        blockchain.Type
	chain     ChainConfig
	cfg       Config
	dataDir   string
	manager   SourceManager
	processor *walletsync.Processor
	tracker   *sync.Tracker
	opts      options
	changed   chan struct{}
	log       *log.Logger

	poolLock gosync.RWMutex
	pool     *sourcepool.Pool
}

func newChainSyncer(cfg Config, chain ChainConfig, manager SourceManager, opts options) (*ChainSyncer, error) {
	dataDir := filepath.Join(cfg.DataDir, chain.Blockchain.UID())
	if err := os.MkdirAll(dataDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("error creating data dir of %s: %w", chain.Blockchain, err)
	}
	processor, err := walletsync.NewProcessor(filepath.Join(dataDir, walletSyncDBName))
	if err != nil {
		return nil, fmt.Errorf("error opening the wallet DB of %s: %w", chain.Blockchain, err)
	}
	return &ChainSyncer{
		bt:        chain.Blockchain,
		chain:     chain,
		cfg:       cfg,
		dataDir:   dataDir,
		manager:   manager,
		processor: processor,
		tracker:   sync.NewTracker(),
		opts:      opts,
		changed:   make(chan struct{}, 1),
		log:       log.WithFields("module", "engine", "blockchain", chain.Blockchain.UID()),
	}, nil
}

// Run syncs the blockchain until ctx is done. Failed rounds are retried after a backoff
func (c *ChainSyncer) Run(ctx context.Context) error {
	defer c.tracker.Stop()
	for {
		err := c.runRound(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errSourceChanged) {
			c.log.Info("sync source changed, restarting on the new source")
			c.tracker.Stop()
			continue
		}
		if err == nil {
			err = errors.New("sync stopped unexpectedly")
		}
		c.tracker.Fail(err)
		wait := c.cfg.backoff(c.tracker.Status().Failures)
		c.log.Errorf("sync failed, retrying in %s: %v", wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-c.changed:
			timer.Stop()
			c.log.Info("sync source changed while waiting, retrying now")
		case <-timer.C:
		}
	}
}

// sourceChanged cancels the current round. Pending notifications are coalesced
func (c *ChainSyncer) sourceChanged() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

func (c *ChainSyncer) runRound(ctx context.Context) error {
	// a notification received before the round starts is already honored by it
	select {
	case <-c.changed:
	default:
	}

	source, err := c.manager.SyncSource(c.bt)
	if err != nil {
		return err
	}
	var all []syncsource.EvmSyncSource
	if c.cfg.SourcePool.FailoverToOtherSources {
		if all, err = c.manager.AllSyncSources(c.bt); err != nil {
			return err
		}
	}
	c.log.Infof("syncing from %s", source.Name)

	poolOpts := []sourcepool.Option{sourcepool.WithMetrics(c.opts.metrics)}
	if c.opts.dialer != nil {
		poolOpts = append(poolOpts, sourcepool.WithDialer(c.opts.dialer))
	}
	if c.opts.checkChainID {
		poolOpts = append(poolOpts, sourcepool.WithExpectedChainID(c.bt.ChainID(c.cfg.Testnet)))
	}
	pool, err := sourcepool.New(
		c.cfg.SourcePool, c.bt,
		sourcepool.EndpointsFor(source, all, c.cfg.SourcePool.FailoverToOtherSources),
		poolOpts...,
	)
	if err != nil {
		return err
	}
	defer pool.Close()
	c.setPool(pool)

	rdCfg := c.cfg.ReorgDetector
	rdCfg.DBPath = filepath.Join(c.dataDir, reorgDetectorDBName)
	rd, err := reorgdetector.New(pool.Client(), rdCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rd.Close(); err != nil {
			c.log.Warnf("error closing the reorg detector: %v", err)
		}
	}()

	var txSource walletsync.TxSource
	if source.Transaction.Etherscan.APIBaseURL != "" {
		txSource = explorer.NewClient(source.Transaction, c.cfg.Explorer)
	}

	syncer, err := walletsync.New(
		ctx,
		c.cfg.walletSyncConfig(c.chain, filepath.Join(c.dataDir, walletSyncDBName)),
		c.processor, rd, pool.Client(), txSource, c.tracker,
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return rd.Start(gctx)
	})
	g.Go(func() error {
		return syncer.Start(gctx)
	})
	g.Go(func() error {
		select {
		case <-c.changed:
			return errSourceChanged
		case <-gctx.Done():
			return nil
		}
	})
	return g.Wait()
}

func (c *ChainSyncer) setPool(p *sourcepool.Pool) {
	c.poolLock.Lock()
	defer c.poolLock.Unlock()
	c.pool = p
}

// Blockchain synced
func (c *ChainSyncer) Blockchain() blockchain.Type {
	return c.bt
}

// Status of the sync
func (c *ChainSyncer) Status() sync.Status {
	return c.tracker.Status()
}

// Tracker returns the state machine of the sync
func (c *ChainSyncer) Tracker() *sync.Tracker {
	return c.tracker
}

// Health of the endpoints of the current round. Empty before the first round
func (c *ChainSyncer) Health() []sourcepool.EndpointHealth {
	c.poolLock.RLock()
	defer c.poolLock.RUnlock()
	if c.pool == nil {
		return []sourcepool.EndpointHealth{}
	}
	return c.pool.Health()
}

// Processor holds the synced wallet state
func (c *ChainSyncer) Processor() *walletsync.Processor {
	return c.processor
}

// Close releases the wallet DB. Run must have returned
func (c *ChainSyncer) Close() error {
	return c.processor.Close()
}
