package sourcepool

import (
	"context"
	"encoding/base64"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Dialer opens a connection to an endpoint
type Dialer func(ctx context.Context, e Endpoint) (EthClient, error)

// DefaultDialer connects through go-ethereum. Sources with Auth get a basic auth header
// with an empty user, the way Infura expects the project secret
func DefaultDialer(ctx context.Context, e Endpoint) (EthClient, error) {
	var opts []rpc.ClientOption
	if e.Auth != "" {
		opts = append(opts, rpc.WithHeader("Authorization", basicAuth(e.Auth)))
	}
	c, err := rpc.DialOptions(ctx, e.URL, opts...)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(c), nil
}

func basicAuth(secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+secret))
}
