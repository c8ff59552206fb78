package walletsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/sync"
	"golang.org/x/sync/errgroup"
)

const (
	reorgDetectorID = "walletsync"
)

var (
	ErrNoAccounts = errors.New("walletsync: no accounts to watch")
)

// Syncer keeps the wallet state of a chain in sync: transfers and balances from the node,
// history from the transaction source
type Syncer struct {
	processor *Processor
	driver    *sync.EVMDriver
	history   *History
	tracker   *sync.Tracker
}

// New builds a syncer on top of processor. txSource may be nil, then no history is fetched
func New(
	ctx context.Context,
	cfg Config,
	processor *Processor,
	rd sync.ReorgDetector,
	client EthClienter,
	txSource TxSource,
	tracker *sync.Tracker,
) (*Syncer, error) {
	cfg = cfg.withDefaults()
	accounts := uniqueAddresses(cfg.Accounts)
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	lastProcessedBlock, err := processor.GetLastProcessedBlock(ctx)
	nothingProcessed := errors.Is(err, sync.ErrNothingProcessed)
	if err != nil && !nothingProcessed {
		return nil, err
	}
	if cfg.InitialBlockNum > 0 && (nothingProcessed || lastProcessedBlock < cfg.InitialBlockNum-1) {
		err = processor.ProcessBlock(ctx, sync.Block{
			Num: cfg.InitialBlockNum - 1,
		})
		if err != nil {
			return nil, err
		}
	}

	rh := &sync.RetryHandler{
		RetryAfterErrorPeriod:      cfg.RetryAfterErrorPeriod.Duration,
		MaxRetryAttemptsAfterError: cfg.MaxRetryAttemptsAfterError,
	}
	if tracker == nil {
		tracker = sync.NewTracker()
	}

	downloader, err := sync.NewEVMDownloader(
		reorgDetectorID,
		client,
		cfg.SyncBlockChunkSize,
		cfg.BlockFinality,
		cfg.WaitForNewBlocksPeriod.Duration,
		buildAppender(),
		buildQueries(accounts, cfg.Tokens),
		rh,
		sync.WithTracker(tracker),
		sync.WithChunkEndHook(balanceSampler(client, accounts, rh)),
	)
	if err != nil {
		return nil, err
	}

	driver, err := sync.NewEVMDriver(rd, processor, downloader, reorgDetectorID, cfg.DownloadBufferSize, rh, tracker)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		processor: processor,
		driver:    driver,
		tracker:   tracker,
	}
	if txSource != nil {
		s.history = newHistory(processor, txSource, accounts, cfg.HistoryInterval.Duration, cfg.HistoryBlockRange)
	}
	return s, nil
}

// Start syncs until ctx is done or the driver fails. The history backfill stops with the driver
func (s *Syncer) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.driver.Sync(gctx); err != nil {
			return fmt.Errorf("walletsync driver: %w", err)
		}
		// the driver only returns nil when ctx is done
		return context.Canceled
	})
	if s.history != nil {
		g.Go(func() error {
			return s.history.Start(gctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Tracker returns the sync state of the chain
func (s *Syncer) Tracker() *sync.Tracker {
	return s.tracker
}

// GetLastProcessedBlock returns the last processed block
func (s *Syncer) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	return s.processor.GetLastProcessedBlock(ctx)
}

func uniqueAddresses(addrs []common.Address) []common.Address {
	seen := make(map[common.Address]struct{}, len(addrs))
	unique := make([]common.Address, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		unique = append(unique, a)
	}
	return unique
}
