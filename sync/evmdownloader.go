package sync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/horizontalsystems/chainsync/log"
)

const (
	DefaultWaitPeriodBlockNotFound = time.Millisecond * 100
)

// EthClienter is what the downloader needs from a node. Log subscriptions are not used, so
// pooled clients that only route request/response calls satisfy it
type EthClienter interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type EVMDownloaderInterface interface {
	WaitForNewBlocks(ctx context.Context, lastBlockSeen uint64) (newLastBlock uint64, err error)
	GetEventsByBlockRange(ctx context.Context, fromBlock, toBlock uint64) ([]EVMBlock, error)
	GetLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)
	GetBlockHeader(ctx context.Context, blockNum uint64) (EVMBlockHeader, error)
}

type LogAppenderMap map[common.Hash]func(b *EVMBlock, l types.Log) error

// ChunkEndHook is called with the block that closes every downloaded chunk, before it is sent
type ChunkEndHook func(ctx context.Context, b *EVMBlock) error

type DownloaderOption func(*EVMDownloader)

// WithTracker reports the remote head seen while waiting for new blocks
func WithTracker(t *Tracker) DownloaderOption {
	return func(d *EVMDownloader) {
		if impl, ok := d.EVMDownloaderInterface.(*EVMDownloaderImplementation); ok {
			impl.tracker = t
		}
	}
}

// WithChunkEndHook sets a hook for the last block of each chunk
func WithChunkEndHook(hook ChunkEndHook) DownloaderOption {
	return func(d *EVMDownloader) { d.chunkEndHook = hook }
}

type EVMDownloader struct {
	syncBlockChunkSize uint64
	chunkEndHook       ChunkEndHook
	EVMDownloaderInterface
	log *log.Logger
}

// NewEVMDownloader creates a downloader. Logs are fetched with every query of queries, whose
// block range is overwritten on each call. With no queries, logs are filtered by the topics of appender
func NewEVMDownloader(
	syncerID string,
	ethClient EthClienter,
	syncBlockChunkSize uint64,
	blockFinalityType BlockNumberFinality,
	waitForNewBlocksPeriod time.Duration,
	appender LogAppenderMap,
	queries []ethereum.FilterQuery,
	rh *RetryHandler,
	opts ...DownloaderOption,
) (*EVMDownloader, error) {
	if syncBlockChunkSize == 0 {
		return nil, errors.New("SyncBlockChunkSize must be greater than 0")
	}
	logger := log.WithFields("syncer", syncerID)
	finality, err := blockFinalityType.ToBlockNum()
	if err != nil {
		return nil, err
	}
	topicsToQuery := make([]common.Hash, 0, len(appender))
	for topic := range appender {
		topicsToQuery = append(topicsToQuery, topic)
	}
	if len(queries) == 0 {
		queries = []ethereum.FilterQuery{{Topics: [][]common.Hash{topicsToQuery}}}
	}
	d := &EVMDownloader{
		syncBlockChunkSize: syncBlockChunkSize,
		log:                logger,
		EVMDownloaderInterface: &EVMDownloaderImplementation{
			ethClient:              ethClient,
			blockFinality:          finality,
			waitForNewBlocksPeriod: waitForNewBlocksPeriod,
			appender:               appender,
			queries:                queries,
			rh:                     rh,
			log:                    logger,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Download sends the blocks from fromBlock onwards to downloadedCh, in ascending order.
// The channel is closed when Download returns
func (d *EVMDownloader) Download(ctx context.Context, fromBlock uint64, downloadedCh chan EVMBlock) error {
	defer close(downloadedCh)

	lastBlock, err := d.WaitForNewBlocks(ctx, 0)
	if err != nil {
		return ignoreCanceled(ctx, err)
	}
	for {
		if ctx.Err() != nil {
			d.log.Debug("closing channel")
			return nil
		}
		toBlock := min(fromBlock+d.syncBlockChunkSize-1, lastBlock)
		if fromBlock > toBlock {
			d.log.Debugf(
				"waiting for new blocks, last block processed: %d, last block seen: %d",
				fromBlock-1, lastBlock,
			)
			lastBlock, err = d.WaitForNewBlocks(ctx, fromBlock-1)
			if err != nil {
				return ignoreCanceled(ctx, err)
			}
			continue
		}
		d.log.Debugf("getting events from block %d to %d", fromBlock, toBlock)
		blocks, err := d.GetEventsByBlockRange(ctx, fromBlock, toBlock)
		if err != nil {
			return ignoreCanceled(ctx, err)
		}
		if len(blocks) == 0 || blocks[len(blocks)-1].Num < toBlock {
			// the last block of the chunk is sent even without events so the cursor advances
			header, err := d.GetBlockHeader(ctx, toBlock)
			if err != nil {
				return ignoreCanceled(ctx, err)
			}
			blocks = append(blocks, EVMBlock{EVMBlockHeader: header})
		}
		if d.chunkEndHook != nil {
			if err := d.chunkEndHook(ctx, &blocks[len(blocks)-1]); err != nil {
				return ignoreCanceled(ctx, fmt.Errorf("chunk end hook for block %d: %w", toBlock, err))
			}
		}
		for _, b := range blocks {
			d.log.Debugf("sending block %d to the driver (%d events)", b.Num, len(b.Events))
			select {
			case downloadedCh <- b:
			case <-ctx.Done():
				return nil
			}
		}
		fromBlock = toBlock + 1
	}
}

func ignoreCanceled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type EVMDownloaderImplementation struct {
	ethClient              EthClienter
	blockFinality          *big.Int
	waitForNewBlocksPeriod time.Duration
	appender               LogAppenderMap
	queries                []ethereum.FilterQuery
	rh                     *RetryHandler
	tracker                *Tracker
	log                    *log.Logger
}

func (d *EVMDownloaderImplementation) WaitForNewBlocks(
	ctx context.Context, lastBlockSeen uint64,
) (uint64, error) {
	attempts := 0
	ticker := time.NewTicker(d.waitForNewBlocksPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.log.Info("context cancelled")
			return lastBlockSeen, ctx.Err()
		case <-ticker.C:
			header, err := d.ethClient.HeaderByNumber(ctx, d.blockFinality)
			if err != nil {
				if ctx.Err() != nil {
					return lastBlockSeen, ctx.Err()
				}
				attempts++
				d.log.Error("error getting last block num from eth client: ", err)
				if err := d.rh.Handle(ctx, "waitForNewBlocks", attempts); err != nil {
					return lastBlockSeen, err
				}
				continue
			}
			attempts = 0
			head := header.Number.Uint64()
			if d.tracker != nil {
				d.tracker.SetRemoteHead(head)
			}
			if head > lastBlockSeen {
				return head, nil
			}
		}
	}
}

func (d *EVMDownloaderImplementation) GetEventsByBlockRange(
	ctx context.Context, fromBlock, toBlock uint64,
) ([]EVMBlock, error) {
	for {
		blocks, retry, err := d.getEventsByBlockRange(ctx, fromBlock, toBlock)
		if err != nil || !retry {
			return blocks, err
		}
	}
}

func (d *EVMDownloaderImplementation) getEventsByBlockRange(
	ctx context.Context, fromBlock, toBlock uint64,
) (blocks []EVMBlock, retry bool, err error) {
	logs, err := d.GetLogs(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, false, err
	}
	blocks = []EVMBlock{}
	for _, l := range logs {
		if len(blocks) == 0 || blocks[len(blocks)-1].Num < l.BlockNumber {
			b, err := d.GetBlockHeader(ctx, l.BlockNumber)
			if err != nil {
				return nil, false, err
			}
			if b.Hash != l.BlockHash {
				d.log.Infof(
					"there has been a block hash change between the event query and the block query "+
						"for block %d: %s vs %s. Retrying.",
					l.BlockNumber, b.Hash, l.BlockHash,
				)
				return nil, true, nil
			}
			blocks = append(blocks, EVMBlock{
				EVMBlockHeader: EVMBlockHeader{
					Num:        l.BlockNumber,
					Hash:       l.BlockHash,
					Timestamp:  b.Timestamp,
					ParentHash: b.ParentHash,
				},
				Events: []interface{}{},
			})
		}

		attempts := 0
		for {
			err := d.appender[l.Topics[0]](&blocks[len(blocks)-1], l)
			if err == nil {
				break
			}
			attempts++
			d.log.Error("error trying to append log: ", err)
			if err := d.rh.Handle(ctx, "getLogs", attempts); err != nil {
				return nil, false, err
			}
		}
	}
	return blocks, false, nil
}

func filterQueryToString(query ethereum.FilterQuery) string {
	return fmt.Sprintf("FromBlock: %s, ToBlock: %s, Addresses: %s, Topics: %s",
		query.FromBlock.String(), query.ToBlock.String(), query.Addresses, query.Topics)
}

type logKey struct {
	blockHash common.Hash
	index     uint
}

// GetLogs runs every query on the range and returns the known logs sorted by block and index.
// Logs matched by more than one query are returned once
func (d *EVMDownloaderImplementation) GetLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	seen := make(map[logKey]struct{})
	var logs []types.Log
	for _, q := range d.queries {
		query := q
		query.FromBlock = new(big.Int).SetUint64(fromBlock)
		query.ToBlock = new(big.Int).SetUint64(toBlock)
		unfilteredLogs, err := d.filterLogs(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, l := range unfilteredLogs {
			if len(l.Topics) == 0 || l.Removed {
				continue
			}
			if _, ok := d.appender[l.Topics[0]]; !ok {
				continue
			}
			key := logKey{blockHash: l.BlockHash, index: l.Index}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			logs = append(logs, l)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
	return logs, nil
}

func (d *EVMDownloaderImplementation) filterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	attempts := 0
	for {
		logs, err := d.ethClient.FilterLogs(ctx, query)
		if err == nil {
			return logs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		attempts++
		d.log.Errorf("error calling FilterLogs to eth client: filter: %s err: %v",
			filterQueryToString(query),
			err,
		)
		if err := d.rh.Handle(ctx, "getLogs", attempts); err != nil {
			return nil, err
		}
	}
}

func (d *EVMDownloaderImplementation) GetBlockHeader(ctx context.Context, blockNum uint64) (EVMBlockHeader, error) {
	attempts := 0
	for {
		header, err := d.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNum))
		if err != nil {
			if ctx.Err() != nil {
				return EVMBlockHeader{}, ctx.Err()
			}
			if errors.Is(err, ethereum.NotFound) {
				// block num can temporary disappear from the execution client due to a reorg,
				// in this case, we want to wait and not fail
				d.log.Warnf("block %d not found on the ethereum client: %v", blockNum, err)
				wait := d.rh.RetryAfterErrorPeriod
				if wait == 0 {
					wait = DefaultWaitPeriodBlockNotFound
				}
				if err := sleep(ctx, wait); err != nil {
					return EVMBlockHeader{}, err
				}
				continue
			}

			attempts++
			d.log.Errorf("error getting block header for block %d, err: %v", blockNum, err)
			if err := d.rh.Handle(ctx, "getBlockHeader", attempts); err != nil {
				return EVMBlockHeader{}, err
			}
			continue
		}
		return newEVMBlockHeader(header), nil
	}
}
