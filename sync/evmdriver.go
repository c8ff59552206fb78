package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/reorgdetector"
)

type downloader interface {
	Download(ctx context.Context, fromBlock uint64, downloadedCh chan EVMBlock) error
}

type EVMDriver struct {
	reorgDetector      ReorgDetector
	reorgSub           *reorgdetector.Subscription
	processor          ProcessorInterface
	downloader         downloader
	reorgDetectorID    string
	downloadBufferSize int
	rh                 *RetryHandler
	tracker            *Tracker
	log                *log.Logger
}

type ReorgDetector interface {
	Subscribe(id string) (*reorgdetector.Subscription, error)
	AddBlockToTrack(ctx context.Context, id string, blockNum uint64, blockHash common.Hash) error
}

func NewEVMDriver(
	reorgDetector ReorgDetector,
	processor ProcessorInterface,
	downloader downloader,
	reorgDetectorID string,
	downloadBufferSize int,
	rh *RetryHandler,
	tracker *Tracker,
) (*EVMDriver, error) {
	logger := log.WithFields("syncer", reorgDetectorID)
	reorgSub, err := reorgDetector.Subscribe(reorgDetectorID)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	return &EVMDriver{
		reorgDetector:      reorgDetector,
		reorgSub:           reorgSub,
		processor:          processor,
		downloader:         downloader,
		reorgDetectorID:    reorgDetectorID,
		downloadBufferSize: downloadBufferSize,
		rh:                 rh,
		tracker:            tracker,
		log:                logger,
	}, nil
}

// Sync processes the downloaded blocks until ctx is done. It returns nil when ctx is done
// and an error when a step runs out of retries
func (d *EVMDriver) Sync(ctx context.Context) error {
	d.tracker.Start()
	for syncID := 1; ; syncID++ {
		restart, err := d.syncRound(ctx, syncID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !restart {
			return nil
		}
	}
}

// syncRound runs a downloader from the last processed block. It returns restart=true
// when the round has to start again from the processor state
func (d *EVMDriver) syncRound(ctx context.Context, syncID int) (restart bool, err error) {
	var (
		fromBlock uint64
		attempts  int
	)
	for {
		lastProcessedBlock, err := d.processor.GetLastProcessedBlock(ctx)
		if err == nil {
			d.tracker.SetProcessed(lastProcessedBlock)
			fromBlock = lastProcessedBlock + 1
			break
		}
		if errors.Is(err, ErrNothingProcessed) {
			fromBlock = 0
			break
		}
		if ctx.Err() != nil {
			return false, nil
		}
		attempts++
		d.log.Error("error getting last processed block: ", err)
		if err := d.rh.Handle(ctx, "Sync", attempts); err != nil {
			return false, err
		}
	}

	cancellableCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.log.Infof("starting sync. syncID: %d, fromBlock: %d", syncID, fromBlock)
	downloadCh := make(chan EVMBlock, d.downloadBufferSize)
	downloadErrCh := make(chan error, 1)
	go func() {
		downloadErrCh <- d.downloader.Download(cancellableCtx, fromBlock, downloadCh)
	}()

	for {
		select {
		case <-ctx.Done():
			return false, nil
		case b, ok := <-downloadCh:
			if !ok {
				// wait for the downloader result
				downloadCh = nil
				continue
			}
			d.log.Debug("handleNewBlock: ", b.Num, b.Hash, " syncID ", syncID)
			if err := d.handleNewBlock(ctx, cancel, b); err != nil {
				if errors.Is(err, ErrInconsistentState) {
					return true, nil
				}
				return false, err
			}
		case err := <-downloadErrCh:
			if err != nil {
				return false, fmt.Errorf("downloader: %w", err)
			}
			if ctx.Err() != nil {
				return false, nil
			}
			d.log.Warn("downloader stopped without error, restarting. syncID ", syncID)
			return true, nil
		case firstReorgedBlock := <-d.reorgSub.ReorgedBlock:
			d.log.Debug("handleReorg: ", firstReorgedBlock, " syncID ", syncID)
			if err := d.handleReorg(ctx, cancel, firstReorgedBlock); err != nil {
				return false, err
			}
			return true, nil
		}
	}
}

func (d *EVMDriver) handleNewBlock(ctx context.Context, cancel context.CancelFunc, b EVMBlock) error {
	attempts := 0
	for {
		err := d.reorgDetector.AddBlockToTrack(ctx, d.reorgDetectorID, b.Num, b.Hash)
		if err == nil {
			break
		}
		attempts++
		d.log.Errorf("error adding block %d to tracker: %v", b.Num, err)
		if err := d.rh.Handle(ctx, "handleNewBlock", attempts); err != nil {
			return err
		}
	}
	attempts = 0
	for {
		err := d.processor.ProcessBlock(ctx, b.toBlock())
		if err == nil {
			break
		}
		if errors.Is(err, ErrInconsistentState) {
			d.log.Warnf("state inconsistent while processing block %d, restarting the download: %v", b.Num, err)
			if cancel != nil {
				cancel()
			}
			return err
		}
		attempts++
		d.log.Errorf("error processing events for block %d, err: %v", b.Num, err)
		if err := d.rh.Handle(ctx, "handleNewBlock", attempts); err != nil {
			return err
		}
	}
	d.tracker.SetProcessed(b.Num)
	return nil
}

func (d *EVMDriver) handleReorg(ctx context.Context, cancel context.CancelFunc, firstReorgedBlock uint64) error {
	// stop downloader
	cancel()

	attempts := 0
	for {
		err := d.processor.Reorg(ctx, firstReorgedBlock)
		if err == nil {
			break
		}
		attempts++
		d.log.Errorf(
			"error processing reorg, last valid Block %d, err: %v",
			firstReorgedBlock, err,
		)
		if err := d.rh.Handle(ctx, "handleReorg", attempts); err != nil {
			// the detector waits for the ack
			d.ackReorg(ctx, false)
			return err
		}
	}
	d.ackReorg(ctx, true)
	return nil
}

func (d *EVMDriver) ackReorg(ctx context.Context, processed bool) {
	select {
	case d.reorgSub.ReorgProcessed <- processed:
	case <-ctx.Done():
	}
}
