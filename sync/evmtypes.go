package sync

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EVMBlockHeader is the part of a node header the sync keeps
type EVMBlockHeader struct {
	Num        uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  uint64
}

func newEVMBlockHeader(h *types.Header) EVMBlockHeader {
	return EVMBlockHeader{
		Num:        h.Number.Uint64(),
		Hash:       h.Hash(),
		ParentHash: h.ParentHash,
		Timestamp:  h.Time,
	}
}

// EVMBlock is a downloaded block. Events hold whatever the log appenders and the chunk end
// hook add, walletsync appends transfers and balance samples. Blocks without events are only
// emitted at the end of a chunk
type EVMBlock struct {
	EVMBlockHeader
	Events []interface{}
}

// Block is what processors store: the block identity plus its events in log order
type Block struct {
	Num    uint64
	Hash   common.Hash
	Events []interface{}
}

func (b EVMBlock) toBlock() Block {
	return Block{
		Num:    b.Num,
		Hash:   b.Hash,
		Events: b.Events,
	}
}
