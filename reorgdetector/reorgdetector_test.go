package reorgdetector

import (
	"context"
	"errors"
	"math/big"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

// fakeChain serves headers from a map. fork changes the Extra field of a header so its
// hash changes
type fakeChain struct {
	mu        sync.Mutex
	headers   map[uint64]*types.Header
	head      uint64
	finalized *uint64
}

func newFakeChain(blocks uint64) *fakeChain {
	c := &fakeChain{headers: make(map[uint64]*types.Header)}
	for i := uint64(1); i <= blocks; i++ {
		c.headers[i] = &types.Header{Number: new(big.Int).SetUint64(i)}
	}
	c.head = blocks
	return c
}

func (c *fakeChain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if number.Int64() == int64(rpc.FinalizedBlockNumber) {
		if c.finalized == nil {
			return nil, errors.New("finalized tag not supported")
		}
		return &types.Header{Number: new(big.Int).SetUint64(*c.finalized)}, nil
	}
	h, ok := c.headers[number.Uint64()]
	if !ok {
		return nil, ethereum.NotFound
	}
	return h, nil
}

func (c *fakeChain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *fakeChain) hash(num uint64) common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers[num].Hash()
}

func (c *fakeChain) fork(from uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n, h := range c.headers {
		if n >= from {
			c.headers[n] = &types.Header{Number: h.Number, Extra: []byte("fork")}
		}
	}
}

func (c *fakeChain) setFinalized(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalized = &n
}

func newTestDetector(t *testing.T, client EthClient, dbPath string) *ReorgDetector {
	t.Helper()
	if dbPath == "" {
		dbPath = path.Join(t.TempDir(), "reorgdetector.sqlite")
	}
	rd, err := New(client, Config{DBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { rd.Close() })
	return rd
}

func trackChain(t *testing.T, rd *ReorgDetector, c *fakeChain, id string, from, to uint64) {
	t.Helper()
	for i := from; i <= to; i++ {
		require.NoError(t, rd.AddBlockToTrack(context.Background(), id, i, c.hash(i)))
	}
}

func trackedNums(rd *ReorgDetector, id string) []uint64 {
	rd.trackedBlocksLock.RLock()
	defer rd.trackedBlocksLock.RUnlock()
	nums := []uint64{}
	if hdrs, ok := rd.trackedBlocks[id]; ok {
		for _, h := range hdrs.getSorted() {
			nums = append(nums, h.Num)
		}
	}
	return nums
}

func TestAddBlockToTrackNotSubscribed(t *testing.T) {
	rd := newTestDetector(t, newFakeChain(1), "")
	err := rd.AddBlockToTrack(context.Background(), "foo", 1, common.HexToHash("0x01"))
	require.ErrorIs(t, err, ErrNotSubscribed)
}

func TestSubscribeIdempotent(t *testing.T) {
	rd := newTestDetector(t, newFakeChain(1), "")
	sub1, err := rd.Subscribe("foo")
	require.NoError(t, err)
	sub2, err := rd.Subscribe("foo")
	require.NoError(t, err)
	require.Same(t, sub1, sub2)
}

func TestTrackedBlocksSurviveRestart(t *testing.T) {
	chain := newFakeChain(5)
	dbPath := path.Join(t.TempDir(), "reorgdetector.sqlite")

	rd, err := New(chain, Config{DBPath: dbPath})
	require.NoError(t, err)
	_, err = rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 5)
	require.NoError(t, rd.Close())

	rd = newTestDetector(t, chain, dbPath)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, trackedNums(rd, "foo"))
	_, err = rd.Subscribe("foo")
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, trackedNums(rd, "foo"))
}

func TestDetectReorg(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(5)
	chain.setFinalized(0)
	rd := newTestDetector(t, chain, "")
	sub, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 5)

	// nothing changed
	require.NoError(t, rd.detectReorgInTrackedList(ctx))
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, trackedNums(rd, "foo"))

	chain.fork(3)
	errCh := make(chan error, 1)
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()

	select {
	case n := <-sub.ReorgedBlock:
		require.Equal(t, uint64(3), n)
	case <-time.After(time.Second):
		t.Fatal("reorg not notified")
	}
	sub.ReorgProcessed <- true
	require.NoError(t, <-errCh)
	require.Equal(t, []uint64{1, 2}, trackedNums(rd, "foo"))

	// the deletion is persisted
	tracked, err := rd.getTrackedBlocks()
	require.NoError(t, err)
	require.Equal(t, 2, tracked["foo"].len())
}

func TestDetectReorgKeepsBlocksTrackedDuringNotification(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(5)
	chain.setFinalized(0)
	rd := newTestDetector(t, chain, "")
	sub, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 5)

	chain.fork(3)
	errCh := make(chan error, 1)
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()
	require.Equal(t, uint64(3), <-sub.ReorgedBlock)
	// the subscriber syncs the new chain before acknowledging
	trackChain(t, rd, chain, "foo", 3, 3)
	sub.ReorgProcessed <- true
	require.NoError(t, <-errCh)
	require.Equal(t, []uint64{1, 2, 3}, trackedNums(rd, "foo"))

	tracked, err := rd.getTrackedBlocks()
	require.NoError(t, err)
	hdr, ok := tracked["foo"].get(3)
	require.True(t, ok)
	require.Equal(t, chain.hash(3), hdr.Hash)

	// the new block is not a reorg
	require.NoError(t, rd.detectReorgInTrackedList(ctx))
	require.Equal(t, []uint64{1, 2, 3}, trackedNums(rd, "foo"))
}

func TestDetectReorgMissingBlock(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(5)
	chain.setFinalized(0)
	rd := newTestDetector(t, chain, "")
	sub, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 5)

	chain.mu.Lock()
	delete(chain.headers, 5)
	chain.head = 4
	chain.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()
	require.Equal(t, uint64(5), <-sub.ReorgedBlock)
	sub.ReorgProcessed <- true
	require.NoError(t, <-errCh)
	require.Equal(t, []uint64{1, 2, 3, 4}, trackedNums(rd, "foo"))
}

func TestDetectReorgNotProcessed(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(4)
	chain.setFinalized(0)
	rd := newTestDetector(t, chain, "")
	sub, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 4)
	chain.fork(2)

	errCh := make(chan error, 1)
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()
	require.Equal(t, uint64(2), <-sub.ReorgedBlock)
	sub.ReorgProcessed <- false
	require.NoError(t, <-errCh)
	require.Equal(t, []uint64{1, 2, 3, 4}, trackedNums(rd, "foo"))

	// notified again on the next check
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()
	require.Equal(t, uint64(2), <-sub.ReorgedBlock)
	sub.ReorgProcessed <- true
	require.NoError(t, <-errCh)
	require.Equal(t, []uint64{1}, trackedNums(rd, "foo"))
}

func TestDetectReorgNotifiedOnce(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(3)
	chain.setFinalized(0)
	rd := newTestDetector(t, chain, "")
	sub, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 3)

	stale := header{Num: 3, Hash: chain.hash(3)}
	chain.fork(3)
	errCh := make(chan error, 1)
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()
	require.Equal(t, uint64(3), <-sub.ReorgedBlock)
	sub.ReorgProcessed <- true
	require.NoError(t, <-errCh)
	require.True(t, rd.alreadyNotified("foo", stale))

	// a block tracked again at the same height clears the notification
	require.NoError(t, rd.AddBlockToTrack(ctx, "foo", 3, chain.hash(3)))
	require.False(t, rd.alreadyNotified("foo", stale))
}

func TestCanceledWhileNotifying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chain := newFakeChain(2)
	chain.setFinalized(0)
	rd := newTestDetector(t, chain, "")
	_, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 2)
	chain.fork(1)

	errCh := make(chan error, 1)
	go func() { errCh <- rd.detectReorgInTrackedList(ctx) }()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Equal(t, []uint64{1, 2}, trackedNums(rd, "foo"))
}

func TestPruneFinalizedBlocks(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(5)
	chain.setFinalized(3)
	rd := newTestDetector(t, chain, "")
	_, err := rd.Subscribe("foo")
	require.NoError(t, err)
	trackChain(t, rd, chain, "foo", 1, 5)

	require.NoError(t, rd.detectReorgInTrackedList(ctx))
	require.Equal(t, []uint64{4, 5}, trackedNums(rd, "foo"))
}

func TestFinalizedBlockFallback(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(100)
	rd := newTestDetector(t, chain, "")

	finalized, err := rd.finalizedBlock(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100-defaultFinalityDepth), finalized)

	chain.mu.Lock()
	chain.head = 10
	chain.mu.Unlock()
	finalized, err = rd.finalizedBlock(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), finalized)

	chain.setFinalized(42)
	finalized, err = rd.finalizedBlock(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), finalized)
}

func TestHeadersList(t *testing.T) {
	l := newHeadersList(header{Num: 3}, header{Num: 1}, header{Num: 2})
	require.Equal(t, 3, l.len())
	require.Equal(t, []header{{Num: 1}, {Num: 2}, {Num: 3}}, l.getSorted())

	l.add(header{Num: 2, Hash: common.HexToHash("0x02")})
	h, ok := l.get(2)
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0x02"), h.Hash)

	// 2 is tracked with another hash
	l.removeMatching(header{Num: 2}, header{Num: 3})
	require.Equal(t, 2, l.len())
	l.removeUpTo(2)
	require.True(t, l.isEmpty())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	require.Equal(t, defaultCheckReorgsInterval, cfg.GetCheckReorgsInterval())
	require.Equal(t, uint64(defaultFinalityDepth), cfg.GetFinalityDepth())
}
