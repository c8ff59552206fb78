package sourcepool

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Client is an EthClient whose calls go through the pool
type Client struct {
	pool *Pool
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := c.pool.do(ctx, "HeaderByNumber", func(ctx context.Context, e *endpoint, ec EthClient) error {
		var err error
		header, err = ec.HeaderByNumber(ctx, number)
		if err == nil && number == nil && header != nil {
			c.pool.observeHead(e, header.Number.Uint64())
		}
		return err
	})
	return header, err
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var num uint64
	err := c.pool.do(ctx, "BlockNumber", func(ctx context.Context, e *endpoint, ec EthClient) error {
		var err error
		num, err = ec.BlockNumber(ctx)
		if err == nil {
			c.pool.observeHead(e, num)
		}
		return err
	})
	return num, err
}

func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.pool.Do(ctx, "FilterLogs", func(ctx context.Context, ec EthClient) error {
		var err error
		logs, err = ec.FilterLogs(ctx, q)
		return err
	})
	return logs, err
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var balance *big.Int
	err := c.pool.Do(ctx, "BalanceAt", func(ctx context.Context, ec EthClient) error {
		var err error
		balance, err = ec.BalanceAt(ctx, account, blockNumber)
		return err
	})
	return balance, err
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.pool.Do(ctx, "ChainID", func(ctx context.Context, ec EthClient) error {
		var err error
		id, err = ec.ChainID(ctx)
		return err
	})
	return id, err
}

// Close is a no-op, the clients belong to the pool
func (c *Client) Close() {}
