package blockchain

import (
	"errors"
	"fmt"
)

// Type identifies an EVM blockchain by its uid
type Type string

const (
	Ethereum          Type = "ethereum"
	BinanceSmartChain Type = "binance-smart-chain"
	Polygon           Type = "polygon-pos"
	Avalanche         Type = "avalanche"
	Optimism          Type = "optimistic-ethereum"
	ArbitrumOne       Type = "arbitrum-one"
)

var ErrUnknownBlockchain = errors.New("unknown blockchain")

type chainInfo struct {
	name           string
	mainnetChainID uint64
	testnetChainID uint64
	nativeSymbol   string
}

var chains = map[Type]chainInfo{
	Ethereum:          {name: "Ethereum", mainnetChainID: 1, testnetChainID: 5, nativeSymbol: "ETH"},
	BinanceSmartChain: {name: "BNB Smart Chain", mainnetChainID: 56, testnetChainID: 97, nativeSymbol: "BNB"},
	Polygon:           {name: "Polygon", mainnetChainID: 137, testnetChainID: 80001, nativeSymbol: "MATIC"},
	Avalanche:         {name: "Avalanche", mainnetChainID: 43114, testnetChainID: 43113, nativeSymbol: "AVAX"},
	Optimism:          {name: "Optimism", mainnetChainID: 10, testnetChainID: 420, nativeSymbol: "ETH"},
	ArbitrumOne:       {name: "Arbitrum One", mainnetChainID: 42161, testnetChainID: 421613, nativeSymbol: "ETH"},
}

// All returns the supported blockchains in display order
func All() []Type {
	return []Type{Ethereum, BinanceSmartChain, Polygon, Avalanche, Optimism, ArbitrumOne}
}

// ParseType validates uid
func ParseType(uid string) (Type, error) {
	t := Type(uid)
	if _, ok := chains[t]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBlockchain, uid)
	}
	return t, nil
}

// UID returns the identifier used on storage and config
func (t Type) UID() string {
	return string(t)
}

// Name is the human readable name
func (t Type) Name() string {
	return chains[t].name
}

// NativeSymbol returns the symbol of the coin used to pay fees
func (t Type) NativeSymbol() string {
	return chains[t].nativeSymbol
}

// ChainID returns the EIP-155 chain id of the network
func (t Type) ChainID(testnet bool) uint64 {
	if testnet {
		return chains[t].testnetChainID
	}
	return chains[t].mainnetChainID
}

func (t Type) String() string {
	return string(t)
}

// UnmarshalText allows blockchain types to be used on config files
func (t *Type) UnmarshalText(data []byte) error {
	parsed, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
