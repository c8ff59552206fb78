package syncsource

import (
	"github.com/horizontalsystems/chainsync/blockchain"
)

// Keys are the credentials of the providers used by the default sources
type Keys struct {
	InfuraProjectID           string `mapstructure:"InfuraProjectID"`
	InfuraProjectSecret       string `mapstructure:"InfuraProjectSecret"`
	EtherscanAPIKey           string `mapstructure:"EtherscanAPIKey"`
	BscscanAPIKey             string `mapstructure:"BscscanAPIKey"`
	PolygonscanAPIKey         string `mapstructure:"PolygonscanAPIKey"`
	SnowtraceAPIKey           string `mapstructure:"SnowtraceAPIKey"`
	OptimisticEtherscanAPIKey string `mapstructure:"OptimisticEtherscanAPIKey"`
	ArbiscanAPIKey            string `mapstructure:"ArbiscanAPIKey"`
}

func etherscanSource(name, apiBaseURL, txBaseURL, apiKey string) TransactionSource {
	return TransactionSource{
		Name: name,
		Etherscan: Etherscan{
			APIBaseURL: apiBaseURL,
			TxBaseURL:  txBaseURL,
			APIKey:     apiKey,
		},
	}
}

// DefaultSources returns the built-in sources per blockchain, in priority order.
// testnet switches every chain that has one to its test network.
func DefaultSources(keys Keys, testnet bool) map[blockchain.Type][]EvmSyncSource {
	sources := make(map[blockchain.Type][]EvmSyncSource, len(blockchain.All()))

	if testnet {
		goerliEtherscan := etherscanSource("goerli.etherscan.io",
			"https://api-goerli.etherscan.io", "https://goerli.etherscan.io", keys.EtherscanAPIKey)
		sources[blockchain.Ethereum] = []EvmSyncSource{
			NewEvmSyncSource(blockchain.Ethereum, "TestNet Websocket",
				WebSocketSource("wss://goerli.infura.io/ws/v3/"+keys.InfuraProjectID, keys.InfuraProjectSecret),
				goerliEtherscan),
			NewEvmSyncSource(blockchain.Ethereum, "TestNet HTTP",
				HTTPSource(keys.InfuraProjectSecret, "https://goerli.infura.io/v3/"+keys.InfuraProjectID),
				goerliEtherscan),
		}
	} else {
		etherscan := etherscanSource("etherscan.io",
			"https://api.etherscan.io", "https://etherscan.io", keys.EtherscanAPIKey)
		sources[blockchain.Ethereum] = []EvmSyncSource{
			NewEvmSyncSource(blockchain.Ethereum, "MainNet Websocket",
				WebSocketSource("wss://mainnet.infura.io/ws/v3/"+keys.InfuraProjectID, keys.InfuraProjectSecret),
				etherscan),
			NewEvmSyncSource(blockchain.Ethereum, "MainNet HTTP",
				HTTPSource(keys.InfuraProjectSecret, "https://mainnet.infura.io/v3/"+keys.InfuraProjectID),
				etherscan),
		}
	}

	bscscan := etherscanSource("bscscan.com", "https://api.bscscan.com", "https://bscscan.com", keys.BscscanAPIKey)
	sources[blockchain.BinanceSmartChain] = []EvmSyncSource{
		NewEvmSyncSource(blockchain.BinanceSmartChain, "Default HTTP",
			HTTPSource("",
				"https://bsc-dataseed.binance.org",
				"https://bsc-dataseed1.defibit.io",
				"https://bsc-dataseed1.ninicoin.io",
			),
			bscscan),
		NewEvmSyncSource(blockchain.BinanceSmartChain, "BSC-RPC HTTP",
			HTTPSource("", "https://bscrpc.com"),
			bscscan),
		NewEvmSyncSource(blockchain.BinanceSmartChain, "Default WebSocket",
			WebSocketSource("wss://bsc-ws-node.nariox.org:443", ""),
			bscscan),
	}

	if testnet {
		sources[blockchain.Polygon] = []EvmSyncSource{
			NewEvmSyncSource(blockchain.Polygon, "Polygon-RPC HTTP",
				HTTPSource("", "https://matic-mumbai.chainstacklabs.com"),
				etherscanSource("mumbai.polygonscan.com",
					"https://api-testnet.polygonscan.com", "https://mumbai.polygonscan.com", keys.PolygonscanAPIKey)),
		}
		sources[blockchain.Avalanche] = []EvmSyncSource{
			NewEvmSyncSource(blockchain.Avalanche, "Avax.network",
				HTTPSource("", "https://api.avax-test.network/ext/bc/C/rpc"),
				etherscanSource("testnet.snowtrace.io",
					"https://api-testnet.snowtrace.io", "https://testnet.snowtrace.io", keys.SnowtraceAPIKey)),
		}
	} else {
		sources[blockchain.Polygon] = []EvmSyncSource{
			NewEvmSyncSource(blockchain.Polygon, "Polygon-RPC HTTP",
				HTTPSource("", "https://polygon-rpc.com"),
				etherscanSource("polygonscan.com",
					"https://api.polygonscan.com", "https://polygonscan.com", keys.PolygonscanAPIKey)),
		}
		sources[blockchain.Avalanche] = []EvmSyncSource{
			NewEvmSyncSource(blockchain.Avalanche, "Avax.network",
				HTTPSource("", "https://api.avax.network/ext/bc/C/rpc"),
				etherscanSource("snowtrace.io",
					"https://api.snowtrace.io", "https://snowtrace.io", keys.SnowtraceAPIKey)),
		}
	}

	sources[blockchain.Optimism] = []EvmSyncSource{
		NewEvmSyncSource(blockchain.Optimism, "Optimism.io HTTP",
			HTTPSource("", "https://mainnet.optimism.io"),
			etherscanSource("optimistic.etherscan.io",
				"https://api-optimistic.etherscan.io", "https://optimistic.etherscan.io", keys.OptimisticEtherscanAPIKey)),
	}

	sources[blockchain.ArbitrumOne] = []EvmSyncSource{
		NewEvmSyncSource(blockchain.ArbitrumOne, "Arbitrum.io HTTP",
			HTTPSource("", "https://arb1.arbitrum.io/rpc"),
			etherscanSource("arbiscan.io", "https://api.arbiscan.io", "https://arbiscan.io", keys.ArbiscanAPIKey)),
	}

	return sources
}
