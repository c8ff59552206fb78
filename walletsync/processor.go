package walletsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/db"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/sync"
	"github.com/horizontalsystems/chainsync/walletsync/migrations"
	"github.com/russross/meddler"
)

// Processor stores the wallet state of a chain. Its block table is the durable cursor of the sync
type Processor struct {
	db  *sql.DB
	log *log.Logger
}

// NewProcessor opens the DB at dbPath, applying the migrations
func NewProcessor(dbPath string) (*Processor, error) {
	err := migrations.RunMigrations(dbPath)
	if err != nil {
		return nil, err
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &Processor{
		db:  database,
		log: log.WithFields("module", "walletsync"),
	}, nil
}

// Close releases the DB
func (p *Processor) Close() error {
	return p.db.Close()
}

// GetLastProcessedBlock returns the last processed block, including blocks that don't have events.
// An empty DB returns sync.ErrNothingProcessed
func (p *Processor) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	return p.getLastProcessedBlockWithTx(p.db)
}

func (p *Processor) getLastProcessedBlockWithTx(tx db.Querier) (uint64, error) {
	var lastProcessedBlock uint64
	row := tx.QueryRow("SELECT num FROM block ORDER BY num DESC LIMIT 1;")
	err := row.Scan(&lastProcessedBlock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sync.ErrNothingProcessed
	}
	return lastProcessedBlock, err
}

// ProcessBlock stores the block and its events in a single transaction
func (p *Processor) ProcessBlock(ctx context.Context, block sync.Block) (err error) {
	tx, err := db.NewTx(ctx, p.db)
	if err != nil {
		return err
	}
	defer db.RollbackOnErr(tx, &err)

	if _, err = tx.Exec(`INSERT INTO block (num, hash) VALUES ($1, $2);`, block.Num, block.Hash.Hex()); err != nil {
		if db.IsUniqueViolation(err) {
			// the block is already there, the downloader started behind the processor
			return fmt.Errorf("block %d already processed: %w", block.Num, sync.ErrInconsistentState)
		}
		return err
	}

	for i, e := range block.Events {
		event, ok := e.(Event)
		if !ok {
			err = fmt.Errorf("unexpected event type %T", e)
			return err
		}
		switch {
		case event.Transfer != nil:
			event.Transfer.BlockNum = block.Num
			event.Transfer.BlockPos = uint64(i)
			if err = meddler.Insert(tx, "transfer", event.Transfer); err != nil {
				return fmt.Errorf("failed to insert transfer: %w", err)
			}
		case event.Balance != nil:
			event.Balance.BlockNum = block.Num
			if err = meddler.Insert(tx, "balance", event.Balance); err != nil {
				return fmt.Errorf("failed to insert balance: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	p.log.Debugf("processed %d events until block %d", len(block.Events), block.Num)
	return nil
}

// Reorg removes everything at or after firstReorgedBlock. Explorer history is clamped as well
// so it never gets ahead of the blocks
func (p *Processor) Reorg(ctx context.Context, firstReorgedBlock uint64) (err error) {
	tx, err := db.NewTx(ctx, p.db)
	if err != nil {
		return err
	}
	defer db.RollbackOnErr(tx, &err)

	res, err := tx.Exec(`DELETE FROM block WHERE num >= $1;`, firstReorgedBlock)
	if err != nil {
		return err
	}
	if _, err = tx.Exec(`DELETE FROM explorer_tx WHERE block_num >= $1;`, firstReorgedBlock); err != nil {
		return err
	}
	cursor := max(firstReorgedBlock, 1) - 1
	if _, err = tx.Exec(
		`UPDATE explorer_cursor SET last_block = $1 WHERE last_block > $1;`, cursor,
	); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	rowsAffected, _ := res.RowsAffected()
	p.log.Infof("reorged from block %d, %d blocks removed", firstReorgedBlock, rowsAffected)
	return nil
}

// GetTransfers returns the transfers of account between fromBlock and toBlock, both included
func (p *Processor) GetTransfers(
	ctx context.Context, account common.Address, fromBlock, toBlock uint64,
) ([]*Transfer, error) {
	transfers := []*Transfer{}
	err := meddler.QueryAll(p.db, &transfers, `
		SELECT * FROM transfer
		WHERE (from_addr = $1 OR to_addr = $1) AND block_num >= $2 AND block_num <= $3
		ORDER BY block_num ASC, block_pos ASC;
	`, account.Hex(), fromBlock, toBlock)
	return transfers, err
}

// GetNativeBalance returns the latest sampled balance of account
func (p *Processor) GetNativeBalance(ctx context.Context, account common.Address) (*Balance, error) {
	balance := &Balance{}
	err := meddler.QueryRow(p.db, balance, `
		SELECT * FROM balance WHERE account = $1 ORDER BY block_num DESC LIMIT 1;
	`, account.Hex())
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return balance, nil
}

// GetTransactions returns the history of account fetched from the transaction source
func (p *Processor) GetTransactions(ctx context.Context, account common.Address) ([]*Transaction, error) {
	txs := []*Transaction{}
	err := meddler.QueryAll(p.db, &txs, `
		SELECT * FROM explorer_tx WHERE account = $1 ORDER BY block_num ASC, nonce ASC;
	`, account.Hex())
	return txs, err
}

// GetExplorerCursor returns the last block whose history is stored for account
func (p *Processor) GetExplorerCursor(ctx context.Context, account common.Address) (uint64, error) {
	var lastBlock uint64
	err := p.db.QueryRow(
		`SELECT last_block FROM explorer_cursor WHERE account = $1;`, account.Hex(),
	).Scan(&lastBlock)
	if err != nil {
		return 0, db.ReturnErrNotFound(err)
	}
	return lastBlock, nil
}

// AddTransactions stores txs and moves the explorer cursor of account to lastBlock. Neither the
// txs nor the cursor go beyond the last processed block
func (p *Processor) AddTransactions(
	ctx context.Context, account common.Address, txs []*Transaction, lastBlock uint64,
) (err error) {
	tx, err := db.NewTx(ctx, p.db)
	if err != nil {
		return err
	}
	defer db.RollbackOnErr(tx, &err)

	lastProcessed, err := p.getLastProcessedBlockWithTx(tx)
	if errors.Is(err, sync.ErrNothingProcessed) {
		// no block to anchor the history to
		err = nil
		return tx.Rollback()
	}
	if err != nil {
		return err
	}
	lastBlock = min(lastBlock, lastProcessed)

	for _, t := range txs {
		if t.BlockNum > lastBlock {
			continue
		}
		t.Account = account
		if _, err = tx.Exec(`DELETE FROM explorer_tx WHERE account = $1 AND hash = $2;`,
			account.Hex(), t.Hash.Hex()); err != nil {
			return err
		}
		if err = meddler.Insert(tx, "explorer_tx", t); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.Hash.Hex(), err)
		}
	}
	if _, err = tx.Exec(`
		INSERT INTO explorer_cursor (account, last_block) VALUES ($1, $2)
		ON CONFLICT(account) DO UPDATE SET last_block = excluded.last_block;
	`, account.Hex(), lastBlock); err != nil {
		return err
	}

	return tx.Commit()
}
