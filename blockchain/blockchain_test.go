package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, bt := range All() {
		parsed, err := ParseType(bt.UID())
		require.NoError(t, err)
		require.Equal(t, bt, parsed)
		require.NotEmpty(t, parsed.Name())
		require.NotEmpty(t, parsed.NativeSymbol())
	}

	_, err := ParseType("bitcoin")
	require.ErrorIs(t, err, ErrUnknownBlockchain)
}

func TestChainID(t *testing.T) {
	require.Equal(t, uint64(1), Ethereum.ChainID(false))
	require.Equal(t, uint64(5), Ethereum.ChainID(true))
	require.Equal(t, uint64(56), BinanceSmartChain.ChainID(false))
	require.Equal(t, uint64(80001), Polygon.ChainID(true))
	require.Equal(t, uint64(43113), Avalanche.ChainID(true))
	require.Equal(t, uint64(10), Optimism.ChainID(false))
	require.Equal(t, uint64(42161), ArbitrumOne.ChainID(false))
}

func TestUnmarshalText(t *testing.T) {
	var bt Type
	require.NoError(t, bt.UnmarshalText([]byte("polygon-pos")))
	require.Equal(t, Polygon, bt)
	require.Error(t, bt.UnmarshalText([]byte("nope")))
}
