package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/reorgdetector"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	reorgDetectorID = "foo"
)

func TestSync(t *testing.T) {
	rh := &RetryHandler{
		MaxRetryAttemptsAfterError: 5,
		RetryAfterErrorPeriod:      time.Millisecond * 100,
	}
	rdm := NewReorgDetectorMock(t)
	pm := NewProcessorMock(t)
	dm := NewEVMDownloaderMock(t)
	firstReorgedBlock := make(chan uint64)
	reorgProcessed := make(chan bool)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{
		ReorgedBlock:   firstReorgedBlock,
		ReorgProcessed: reorgProcessed,
	}, nil)
	tracker := NewTracker()
	driver, err := NewEVMDriver(rdm, pm, dm, reorgDetectorID, 10, rh, tracker)
	require.NoError(t, err)
	ctx, cancelSync := context.WithCancel(context.Background())
	expectedBlock1 := EVMBlock{
		EVMBlockHeader: EVMBlockHeader{
			Num:  3,
			Hash: common.HexToHash("03"),
		},
	}
	expectedBlock2 := EVMBlock{
		EVMBlockHeader: EVMBlockHeader{
			Num:  9,
			Hash: common.HexToHash("09"),
		},
	}
	type reorgSemaphore struct {
		mu    sync.Mutex
		green bool
	}
	reorg1Completed := reorgSemaphore{}
	dm.On("Download", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx, ok := args.Get(0).(context.Context)
		if !ok {
			log.Error("failed to assert type for context")
			return
		}

		downloadedCh, ok := args.Get(2).(chan EVMBlock)
		if !ok {
			log.Error("failed to assert type for downloadedCh")
			return
		}

		log.Info("entering mock loop")
		for {
			select {
			case <-ctx.Done():
				log.Info("closing channel")
				close(downloadedCh)
				return
			default:
			}
			reorg1Completed.mu.Lock()
			green := reorg1Completed.green
			reorg1Completed.mu.Unlock()
			if green {
				downloadedCh <- expectedBlock2
			} else {
				downloadedCh <- expectedBlock1
			}
			time.Sleep(100 * time.Millisecond)
		}
	}).Return(nil)

	// Mocking this actions, the driver should "store" all the blocks from the downloader
	pm.On("GetLastProcessedBlock", ctx).
		Return(uint64(3), nil)
	rdm.On("AddBlockToTrack", ctx, reorgDetectorID, expectedBlock1.Num, expectedBlock1.Hash).
		Return(nil)
	pm.On("ProcessBlock", ctx, Block{Num: expectedBlock1.Num, Hash: expectedBlock1.Hash, Events: expectedBlock1.Events}).
		Return(nil)
	rdm.On("AddBlockToTrack", ctx, reorgDetectorID, expectedBlock2.Num, expectedBlock2.Hash).
		Return(nil)
	pm.On("ProcessBlock", ctx, Block{Num: expectedBlock2.Num, Hash: expectedBlock2.Hash, Events: expectedBlock2.Events}).
		Return(nil)
	syncErr := make(chan error, 1)
	go func() { syncErr <- driver.Sync(ctx) }()
	time.Sleep(time.Millisecond * 200) // time to download expectedBlock1
	require.Equal(t, Syncing, tracker.Status().State)

	// Trigger reorg 1
	reorgedBlock1 := uint64(5)
	pm.On("Reorg", ctx, reorgedBlock1).Return(nil)
	firstReorgedBlock <- reorgedBlock1
	ok := <-reorgProcessed
	require.True(t, ok)
	reorg1Completed.mu.Lock()
	reorg1Completed.green = true
	reorg1Completed.mu.Unlock()
	time.Sleep(time.Millisecond * 200) // time to download expectedBlock2
	require.Equal(t, uint64(9), tracker.Status().LastProcessedBlock)

	// Trigger reorg 2: syncer restarts the porcess
	reorgedBlock2 := uint64(7)
	pm.On("Reorg", ctx, reorgedBlock2).Return(nil)
	firstReorgedBlock <- reorgedBlock2
	ok = <-reorgProcessed
	require.True(t, ok)

	cancelSync()
	require.NoError(t, <-syncErr)
}

func TestSyncReturnsDownloaderError(t *testing.T) {
	rh := &RetryHandler{MaxRetryAttemptsAfterError: 1, RetryAfterErrorPeriod: time.Millisecond}
	rdm := NewReorgDetectorMock(t)
	pm := NewProcessorMock(t)
	dm := NewEVMDownloaderMock(t)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{}, nil)
	driver, err := NewEVMDriver(rdm, pm, dm, reorgDetectorID, 10, rh, nil)
	require.NoError(t, err)
	ctx := context.Background()

	expectedErr := errors.New("boom")
	pm.On("GetLastProcessedBlock", ctx).Return(uint64(0), nil)
	dm.On("Download", mock.Anything, uint64(1), mock.Anything).Return(expectedErr)

	err = driver.Sync(ctx)
	require.ErrorIs(t, err, expectedErr)
}

func TestSyncStartsFromGenesisWhenNothingProcessed(t *testing.T) {
	rh := &RetryHandler{MaxRetryAttemptsAfterError: 1, RetryAfterErrorPeriod: time.Millisecond}
	rdm := NewReorgDetectorMock(t)
	pm := NewProcessorMock(t)
	dm := NewEVMDownloaderMock(t)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{}, nil)
	driver, err := NewEVMDriver(rdm, pm, dm, reorgDetectorID, 10, rh, nil)
	require.NoError(t, err)
	ctx := context.Background()

	expectedErr := errors.New("boom")
	pm.On("GetLastProcessedBlock", ctx).Return(uint64(0), ErrNothingProcessed)
	dm.On("Download", mock.Anything, uint64(0), mock.Anything).Return(expectedErr)

	err = driver.Sync(ctx)
	require.ErrorIs(t, err, expectedErr)
	dm.AssertCalled(t, "Download", mock.Anything, uint64(0), mock.Anything)
}

func TestSyncFailsWhenProcessorIsUnavailable(t *testing.T) {
	rh := &RetryHandler{MaxRetryAttemptsAfterError: 2, RetryAfterErrorPeriod: time.Millisecond}
	rdm := NewReorgDetectorMock(t)
	pm := NewProcessorMock(t)
	dm := NewEVMDownloaderMock(t)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{}, nil)
	driver, err := NewEVMDriver(rdm, pm, dm, reorgDetectorID, 10, rh, nil)
	require.NoError(t, err)
	ctx := context.Background()

	pm.On("GetLastProcessedBlock", ctx).Return(uint64(0), errors.New("db locked")).Twice()

	err = driver.Sync(ctx)
	require.ErrorIs(t, err, ErrMaxAttemptsReached)
}

func TestHandleNewBlock(t *testing.T) {
	rh := &RetryHandler{
		MaxRetryAttemptsAfterError: 5,
		RetryAfterErrorPeriod:      time.Millisecond * 100,
	}
	rdm := NewReorgDetectorMock(t)
	pm := NewProcessorMock(t)
	dm := NewEVMDownloaderMock(t)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{}, nil)
	tracker := NewTracker()
	tracker.Start()
	driver, err := NewEVMDriver(rdm, pm, dm, reorgDetectorID, 10, rh, tracker)
	require.NoError(t, err)
	ctx := context.Background()

	// happy path
	b1 := EVMBlock{
		EVMBlockHeader: EVMBlockHeader{
			Num:  1,
			Hash: common.HexToHash("f00"),
		},
	}
	rdm.
		On("AddBlockToTrack", ctx, reorgDetectorID, b1.Num, b1.Hash).
		Return(nil)
	pm.On("ProcessBlock", ctx, Block{Num: b1.Num, Hash: b1.Hash, Events: b1.Events}).
		Return(nil)
	require.NoError(t, driver.handleNewBlock(ctx, nil, b1))
	require.Equal(t, uint64(1), tracker.Status().LastProcessedBlock)

	// reorg deteector fails once
	b2 := EVMBlock{
		EVMBlockHeader: EVMBlockHeader{
			Num:  2,
			Hash: common.HexToHash("f00"),
		},
	}
	rdm.
		On("AddBlockToTrack", ctx, reorgDetectorID, b2.Num, b2.Hash).
		Return(errors.New("foo")).Once()
	rdm.
		On("AddBlockToTrack", ctx, reorgDetectorID, b2.Num, b2.Hash).
		Return(nil).Once()
	pm.On("ProcessBlock", ctx, Block{Num: b2.Num, Hash: b2.Hash, Events: b2.Events}).
		Return(nil)
	require.NoError(t, driver.handleNewBlock(ctx, nil, b2))

	// processor fails once
	b3 := EVMBlock{
		EVMBlockHeader: EVMBlockHeader{
			Num:  3,
			Hash: common.HexToHash("f00"),
		},
	}
	rdm.
		On("AddBlockToTrack", ctx, reorgDetectorID, b3.Num, b3.Hash).
		Return(nil)
	pm.On("ProcessBlock", ctx, Block{Num: b3.Num, Hash: b3.Hash, Events: b3.Events}).
		Return(errors.New("foo")).Once()
	pm.On("ProcessBlock", ctx, Block{Num: b3.Num, Hash: b3.Hash, Events: b3.Events}).
		Return(nil).Once()
	require.NoError(t, driver.handleNewBlock(ctx, nil, b3))

	// inconsistent state error
	b4 := EVMBlock{
		EVMBlockHeader: EVMBlockHeader{
			Num:  4,
			Hash: common.HexToHash("f00"),
		},
	}
	rdm.
		On("AddBlockToTrack", ctx, reorgDetectorID, b4.Num, b4.Hash).
		Return(nil)
	pm.On("ProcessBlock", ctx, Block{Num: b4.Num, Hash: b4.Hash, Events: b4.Events}).
		Return(ErrInconsistentState)
	cancelIsCalled := false
	cancel := func() {
		cancelIsCalled = true
	}
	err = driver.handleNewBlock(ctx, cancel, b4)
	require.ErrorIs(t, err, ErrInconsistentState)
	require.True(t, cancelIsCalled)
	require.Equal(t, uint64(3), tracker.Status().LastProcessedBlock)
}

func TestHandleNewBlockRunsOutOfAttempts(t *testing.T) {
	rh := &RetryHandler{MaxRetryAttemptsAfterError: 1, RetryAfterErrorPeriod: time.Millisecond}
	rdm := NewReorgDetectorMock(t)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{}, nil)
	driver, err := NewEVMDriver(rdm, NewProcessorMock(t), NewEVMDownloaderMock(t), reorgDetectorID, 10, rh, nil)
	require.NoError(t, err)
	ctx := context.Background()

	b := EVMBlock{EVMBlockHeader: EVMBlockHeader{Num: 1, Hash: common.HexToHash("01")}}
	rdm.On("AddBlockToTrack", ctx, reorgDetectorID, b.Num, b.Hash).Return(reorgdetector.ErrNotSubscribed)
	err = driver.handleNewBlock(ctx, nil, b)
	require.ErrorIs(t, err, ErrMaxAttemptsReached)
}

func TestHandleReorg(t *testing.T) {
	rh := &RetryHandler{
		MaxRetryAttemptsAfterError: 5,
		RetryAfterErrorPeriod:      time.Millisecond * 100,
	}
	rdm := NewReorgDetectorMock(t)
	pm := NewProcessorMock(t)
	dm := NewEVMDownloaderMock(t)
	reorgProcessed := make(chan bool)
	rdm.On("Subscribe", reorgDetectorID).Return(&reorgdetector.Subscription{
		ReorgProcessed: reorgProcessed,
	}, nil)
	driver, err := NewEVMDriver(rdm, pm, dm, reorgDetectorID, 10, rh, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// happy path
	_, cancel := context.WithCancel(ctx)
	firstReorgedBlock := uint64(5)
	pm.On("Reorg", ctx, firstReorgedBlock).Return(nil)
	go func() { _ = driver.handleReorg(ctx, cancel, firstReorgedBlock) }()
	done := <-reorgProcessed
	require.True(t, done)

	// processor fails 2 times
	_, cancel = context.WithCancel(ctx)
	firstReorgedBlock = uint64(7)
	pm.On("Reorg", ctx, firstReorgedBlock).Return(errors.New("foo")).Once()
	pm.On("Reorg", ctx, firstReorgedBlock).Return(errors.New("foo")).Once()
	pm.On("Reorg", ctx, firstReorgedBlock).Return(nil).Once()
	go func() { _ = driver.handleReorg(ctx, cancel, firstReorgedBlock) }()
	done = <-reorgProcessed
	require.True(t, done)

	// processor keeps failing: the detector is released with a negative ack
	driver.rh = &RetryHandler{MaxRetryAttemptsAfterError: 1, RetryAfterErrorPeriod: time.Millisecond}
	_, cancel = context.WithCancel(ctx)
	firstReorgedBlock = uint64(9)
	pm.On("Reorg", ctx, firstReorgedBlock).Return(errors.New("foo")).Once()
	errCh := make(chan error, 1)
	go func() { errCh <- driver.handleReorg(ctx, cancel, firstReorgedBlock) }()
	done = <-reorgProcessed
	require.False(t, done)
	require.ErrorIs(t, <-errCh, ErrMaxAttemptsReached)
}
