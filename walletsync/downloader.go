package walletsync

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/horizontalsystems/chainsync/sync"
)

const (
	transferTopics = 3
	transferData   = 32
)

var (
	// Transfer(address indexed from, address indexed to, uint256 value)
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

type EthClienter interface {
	sync.EthClienter
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

func buildAppender() sync.LogAppenderMap {
	appender := make(sync.LogAppenderMap)
	appender[transferEventSignature] = func(b *sync.EVMBlock, l types.Log) error {
		// ERC-721 transfers index the token id as well, those are not wallet balances
		if len(l.Topics) != transferTopics || len(l.Data) != transferData {
			return nil
		}
		b.Events = append(b.Events, Event{Transfer: &Transfer{
			TxHash:   l.TxHash,
			LogIndex: l.Index,
			Token:    l.Address,
			From:     common.BytesToAddress(l.Topics[1].Bytes()),
			To:       common.BytesToAddress(l.Topics[2].Bytes()),
			Value:    new(big.Int).SetBytes(l.Data),
		}})
		return nil
	}
	return appender
}

// buildQueries returns the Transfer filters of the accounts: one matching the sender topic and
// one matching the receiver topic
func buildQueries(accounts, tokens []common.Address) []ethereum.FilterQuery {
	accountTopics := make([]common.Hash, 0, len(accounts))
	for _, a := range accounts {
		accountTopics = append(accountTopics, common.BytesToHash(a.Bytes()))
	}
	return []ethereum.FilterQuery{
		{
			Addresses: tokens,
			Topics:    [][]common.Hash{{transferEventSignature}, accountTopics},
		},
		{
			Addresses: tokens,
			Topics:    [][]common.Hash{{transferEventSignature}, nil, accountTopics},
		},
	}
}

// balanceSampler appends the native balance of every account to the last block of each chunk
func balanceSampler(client EthClienter, accounts []common.Address, rh *sync.RetryHandler) sync.ChunkEndHook {
	return func(ctx context.Context, b *sync.EVMBlock) error {
		blockNum := new(big.Int).SetUint64(b.Num)
		for _, account := range accounts {
			var (
				value    *big.Int
				err      error
				attempts int
			)
			for {
				value, err = client.BalanceAt(ctx, account, blockNum)
				if err == nil {
					break
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				attempts++
				if errRetry := rh.Handle(ctx, "balanceSampler", attempts); errRetry != nil {
					return fmt.Errorf("failed to get the balance of %s at block %d: %w: %w",
						account.Hex(), b.Num, errRetry, err)
				}
			}
			b.Events = append(b.Events, Event{Balance: &Balance{
				Account: account,
				Value:   value,
			}})
		}
		return nil
	}
}
