package reorgdetector

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Subscription is a subscription to reorg events. The subscriber receives the first
// reorged block on ReorgedBlock and answers on ReorgProcessed once it has rolled back
type Subscription struct {
	ReorgedBlock   chan uint64
	ReorgProcessed chan bool
}

// Subscribe subscribes to reorg events. Subscribing twice with the same id returns the
// same subscription, and blocks tracked for id before a restart are kept
func (rd *ReorgDetector) Subscribe(id string) (*Subscription, error) {
	rd.subscriptionsLock.Lock()
	defer rd.subscriptionsLock.Unlock()

	if sub, ok := rd.subscriptions[id]; ok {
		return sub, nil
	}

	sub := &Subscription{
		ReorgedBlock:   make(chan uint64),
		ReorgProcessed: make(chan bool),
	}
	rd.subscriptions[id] = sub

	rd.trackedBlocksLock.Lock()
	if _, ok := rd.trackedBlocks[id]; !ok {
		rd.trackedBlocks[id] = newHeadersList()
	}
	rd.trackedBlocksLock.Unlock()

	rd.notifiedReorgsLock.Lock()
	rd.notifiedReorgs[id] = make(map[uint64]common.Hash)
	rd.notifiedReorgsLock.Unlock()

	return sub, nil
}

// notifySubscriber sends the first reorged block to the subscriber and waits for its answer.
// The reorg is marked as notified only when the subscriber processed it
func (rd *ReorgDetector) notifySubscriber(ctx context.Context, id string, startingBlock header) (bool, error) {
	rd.subscriptionsLock.RLock()
	sub, ok := rd.subscriptions[id]
	rd.subscriptionsLock.RUnlock()
	if !ok {
		return false, ErrNotSubscribed
	}

	select {
	case sub.ReorgedBlock <- startingBlock.Num:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	var processed bool
	select {
	case processed = <-sub.ReorgProcessed:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	if processed {
		rd.notifiedReorgsLock.Lock()
		rd.notifiedReorgs[id][startingBlock.Num] = startingBlock.Hash
		rd.notifiedReorgsLock.Unlock()
	}

	return processed, nil
}

// alreadyNotified reports whether a reorg of this exact tracked block was already processed
func (rd *ReorgDetector) alreadyNotified(id string, hdr header) bool {
	rd.notifiedReorgsLock.RLock()
	defer rd.notifiedReorgsLock.RUnlock()

	hash, ok := rd.notifiedReorgs[id][hdr.Num]
	return ok && hash == hdr.Hash
}

func (rd *ReorgDetector) pruneNotifiedReorgs(id string, finalized uint64) {
	rd.notifiedReorgsLock.Lock()
	defer rd.notifiedReorgsLock.Unlock()

	for num := range rd.notifiedReorgs[id] {
		if num <= finalized {
			delete(rd.notifiedReorgs[id], num)
		}
	}
}
