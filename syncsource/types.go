package syncsource

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/blockchain"
	cscommon "github.com/horizontalsystems/chainsync/common"
)

// RpcKind is the transport used to reach an RPC source
type RpcKind string

const (
	RpcKindHTTP      RpcKind = "http"
	RpcKindWebSocket RpcKind = "websocket"
)

var (
	ErrInvalidRpcSource = errors.New("invalid rpc source")
)

// RpcSource is a set of equivalent endpoints of a node provider.
// A websocket source has exactly one URL.
type RpcSource struct {
	Kind RpcKind  `yaml:"kind" json:"kind"`
	URLs []string `yaml:"urls" json:"urls"`
	// Auth is sent as the password of a basic auth header (Infura project secret)
	Auth string `yaml:"auth,omitempty" json:"-"`
}

// HTTPSource builds an http RpcSource
func HTTPSource(auth string, urls ...string) RpcSource {
	return RpcSource{Kind: RpcKindHTTP, URLs: urls, Auth: auth}
}

// WebSocketSource builds a websocket RpcSource
func WebSocketSource(rawURL, auth string) RpcSource {
	return RpcSource{Kind: RpcKindWebSocket, URLs: []string{rawURL}, Auth: auth}
}

// Validate checks the amount of urls and that their schemes match the kind
func (r RpcSource) Validate() error {
	if len(r.URLs) == 0 {
		return fmt.Errorf("%w: no urls", ErrInvalidRpcSource)
	}
	var schemes []string
	switch r.Kind {
	case RpcKindHTTP:
		schemes = []string{"http", "https"}
	case RpcKindWebSocket:
		if len(r.URLs) != 1 {
			return fmt.Errorf("%w: websocket sources have a single url, got %d", ErrInvalidRpcSource, len(r.URLs))
		}
		schemes = []string{"ws", "wss"}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRpcSource, r.Kind)
	}
	for _, raw := range r.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRpcSource, raw, err)
		}
		if !contains(schemes, strings.ToLower(u.Scheme)) || u.Host == "" {
			return fmt.Errorf("%w: url %s does not match kind %s", ErrInvalidRpcSource, raw, r.Kind)
		}
	}
	return nil
}

// Etherscan describes an etherscan compatible explorer API
type Etherscan struct {
	APIBaseURL string `yaml:"apiBaseUrl" json:"apiBaseUrl"`
	TxBaseURL  string `yaml:"txBaseUrl" json:"txBaseUrl"`
	APIKey     string `yaml:"apiKey,omitempty" json:"-"`
}

// TransactionSource is the explorer used to fetch transaction history
type TransactionSource struct {
	Name      string    `yaml:"name" json:"name"`
	Etherscan Etherscan `yaml:"etherscan" json:"etherscan"`
}

// TxURL is the explorer page of the transaction
func (t TransactionSource) TxURL(txHash string) string {
	return strings.TrimSuffix(t.Etherscan.TxBaseURL, "/") + "/tx/" + txHash
}

// EvmSyncSource couples the node used to sync the chain with the explorer used for history
type EvmSyncSource struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	RPC         RpcSource         `json:"rpc"`
	Transaction TransactionSource `json:"transaction"`
	Custom      bool              `json:"custom"`
}

// NewEvmSyncSource builds a source with its id: "<uid>|<name>|<tx source>|<urls>"
func NewEvmSyncSource(bt blockchain.Type, name string, rpc RpcSource, tx TransactionSource) EvmSyncSource {
	return EvmSyncSource{
		ID:          strings.Join([]string{bt.UID(), name, tx.Name, strings.Join(rpc.URLs, ",")}, "|"),
		Name:        name,
		RPC:         rpc,
		Transaction: tx,
	}
}

// Fingerprint is the keccak256 of the id
func (s EvmSyncSource) Fingerprint() common.Hash {
	return cscommon.Keccak256Hash(s.ID)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
