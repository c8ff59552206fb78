package sync

import (
	"context"
	"errors"
)

var ErrInconsistentState = errors.New("state is inconsistent, try again later once the state is consolidated")

// ErrNothingProcessed is returned by processors that haven't processed any block yet. The sync
// starts from block 0 in that case
var ErrNothingProcessed = errors.New("no block processed yet")

type ProcessorInterface interface {
	GetLastProcessedBlock(ctx context.Context) (uint64, error)
	ProcessBlock(ctx context.Context, block Block) error
	Reorg(ctx context.Context, firstReorgedBlock uint64) error
}
