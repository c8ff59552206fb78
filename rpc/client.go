package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/sourcepool"
	"github.com/horizontalsystems/chainsync/sync"
	"github.com/horizontalsystems/chainsync/rpc/types"
	"github.com/horizontalsystems/chainsync/walletsync"
)

var jSONRPCCall = rpc.JSONRPCCall

// ClientInterface is the interface that defines the implementation of all the endpoints
type ClientInterface interface {
	Blockchains() ([]types.Blockchain, error)
	SyncSources(uid string) ([]types.SyncSource, error)
	SelectedSyncSource(uid string) (*types.SyncSource, error)
	SetSyncSource(uid string, name string) (*types.SyncSource, error)
	Status(uid string) (*sync.Status, error)
	SourceHealth(uid string) ([]sourcepool.EndpointHealth, error)
	Transfers(uid string, account common.Address, fromBlock, toBlock uint64) ([]*walletsync.Transfer, error)
	NativeBalance(uid string, account common.Address) (*walletsync.Balance, error)
	Transactions(uid string, account common.Address) ([]*walletsync.Transaction, error)
}

// Client wraps all the available endpoints of the chainsync server
type Client struct {
	url string
}

// NewClient returns a client ready to be used
func NewClient(url string) *Client {
	return &Client{
		url: url,
	}
}

func call[T any](url, method string, params ...interface{}) (T, error) {
	var result T
	response, err := jSONRPCCall(url, method, params...)
	if err != nil {
		return result, err
	}
	if response.Error != nil {
		return result, fmt.Errorf("error in the response calling %s: %v %v",
			method, response.Error.Code, response.Error.Message)
	}
	return result, json.Unmarshal(response.Result, &result)
}

func (c *Client) Blockchains() ([]types.Blockchain, error) {
	return call[[]types.Blockchain](c.url, "chainsync_blockchains")
}

func (c *Client) SyncSources(uid string) ([]types.SyncSource, error) {
	return call[[]types.SyncSource](c.url, "chainsync_syncSources", uid)
}

func (c *Client) SelectedSyncSource(uid string) (*types.SyncSource, error) {
	return call[*types.SyncSource](c.url, "chainsync_selectedSyncSource", uid)
}

// SetSyncSource selects the source named name for the blockchain
func (c *Client) SetSyncSource(uid string, name string) (*types.SyncSource, error) {
	return call[*types.SyncSource](c.url, "chainsync_setSyncSource", uid, name)
}

func (c *Client) Status(uid string) (*sync.Status, error) {
	return call[*sync.Status](c.url, "chainsync_status", uid)
}

func (c *Client) SourceHealth(uid string) ([]sourcepool.EndpointHealth, error) {
	return call[[]sourcepool.EndpointHealth](c.url, "chainsync_sourceHealth", uid)
}

func (c *Client) Transfers(
	uid string, account common.Address, fromBlock, toBlock uint64,
) ([]*walletsync.Transfer, error) {
	return call[[]*walletsync.Transfer](c.url, "chainsync_transfers", uid, account, fromBlock, toBlock)
}

func (c *Client) NativeBalance(uid string, account common.Address) (*walletsync.Balance, error) {
	return call[*walletsync.Balance](c.url, "chainsync_nativeBalance", uid, account)
}

func (c *Client) Transactions(uid string, account common.Address) ([]*walletsync.Transaction, error) {
	return call[[]*walletsync.Transaction](c.url, "chainsync_transactions", uid, account)
}
