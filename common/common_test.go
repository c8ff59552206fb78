package common

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestUint64Bytes(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{0, 1, 255, 1 << 40, ^uint64(0)} {
		b := Uint64ToBytes(n)
		require.Len(t, b, 8)
		require.Equal(t, n, BytesToUint64(b))
	}
}

func TestKeccak256Hash(t *testing.T) {
	t.Parallel()

	expected := crypto.Keccak256Hash([]byte("foo|bar"))
	require.Equal(t, expected, Keccak256Hash("foo", "|", "bar"))
	require.NotEqual(t, expected, Keccak256Hash("foo", "bar"))
}

func TestAddressHelpers(t *testing.T) {
	t.Parallel()

	require.True(t, SameAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	require.False(t, SameAddress("0x01", "0x02"))

	addr := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	topic := AddressTopic(addr)
	require.Equal(t, addr, common.BytesToAddress(topic.Bytes()))
	require.Equal(t, byte(0), topic[0])
}
