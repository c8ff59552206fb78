package sync

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rpc"
)

var ErrUnknownFinality = errors.New("unknown block finality")

// BlockNumberFinality is the block tag the syncers follow
type BlockNumberFinality string

const (
	LatestBlock    BlockNumberFinality = "LatestBlock"
	SafeBlock      BlockNumberFinality = "SafeBlock"
	PendingBlock   BlockNumberFinality = "PendingBlock"
	FinalizedBlock BlockNumberFinality = "FinalizedBlock"
	EarliestBlock  BlockNumberFinality = "EarliestBlock"
)

// ToBlockNum returns the number go-ethereum understands as the tag
func (b BlockNumberFinality) ToBlockNum() (*big.Int, error) {
	switch b {
	case LatestBlock, "":
		return big.NewInt(int64(rpc.LatestBlockNumber)), nil
	case SafeBlock:
		return big.NewInt(int64(rpc.SafeBlockNumber)), nil
	case PendingBlock:
		return big.NewInt(int64(rpc.PendingBlockNumber)), nil
	case FinalizedBlock:
		return big.NewInt(int64(rpc.FinalizedBlockNumber)), nil
	case EarliestBlock:
		return big.NewInt(int64(rpc.EarliestBlockNumber)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFinality, b)
	}
}
