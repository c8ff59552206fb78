package sync

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestEVMBlockToBlock(t *testing.T) {
	h := &types.Header{Number: big.NewInt(7), ParentHash: common.HexToHash("0x01"), Time: 99}
	hdr := newEVMBlockHeader(h)
	require.Equal(t, EVMBlockHeader{Num: 7, Hash: h.Hash(), ParentHash: h.ParentHash, Timestamp: 99}, hdr)

	b := EVMBlock{EVMBlockHeader: hdr, Events: []interface{}{"transfer"}}
	require.Equal(t, Block{Num: 7, Hash: h.Hash(), Events: []interface{}{"transfer"}}, b.toBlock())
}
