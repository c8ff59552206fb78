package reorgdetector

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/db"
	"github.com/russross/meddler"
)

type trackedBlock struct {
	SubscriberID string      `meddler:"subscriber_id"`
	Num          uint64      `meddler:"num"`
	Hash         common.Hash `meddler:"hash,hash"`
}

// getTrackedBlocks returns the tracked blocks of every subscriber stored in the db
func (rd *ReorgDetector) getTrackedBlocks() (map[string]*headersList, error) {
	var rows []*trackedBlock
	if err := meddler.QueryAll(
		rd.db, &rows, `SELECT * FROM tracked_block ORDER BY subscriber_id, num;`,
	); err != nil {
		return nil, err
	}

	trackedBlocks := make(map[string]*headersList)
	for _, r := range rows {
		hdrs, ok := trackedBlocks[r.SubscriberID]
		if !ok {
			hdrs = newHeadersList()
			trackedBlocks[r.SubscriberID] = hdrs
		}
		hdrs.add(header{Num: r.Num, Hash: r.Hash})
	}

	return trackedBlocks, nil
}

// saveTrackedBlock saves the tracked block for a subscriber in db and in memory
func (rd *ReorgDetector) saveTrackedBlock(ctx context.Context, id string, b header) error {
	rd.trackedBlocksLock.Lock()
	defer rd.trackedBlocksLock.Unlock()

	if _, err := rd.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tracked_block (subscriber_id, num, hash) VALUES ($1, $2, $3);`,
		id, b.Num, b.Hash.Hex(),
	); err != nil {
		return fmt.Errorf("error saving tracked block %d: %w", b.Num, err)
	}

	hdrs, ok := rd.trackedBlocks[id]
	if !ok {
		hdrs = newHeadersList()
		rd.trackedBlocks[id] = hdrs
	}
	hdrs.add(b)

	return nil
}

// removeOrphanedBlocks removes the given blocks tracked for a subscriber. A block tracked
// again at the same number with another hash is kept. Memory is only updated once the
// removal is committed
func (rd *ReorgDetector) removeOrphanedBlocks(ctx context.Context, id string, orphaned []header) error {
	return rd.removeTrackedBlocks(ctx, id,
		func(tx db.Txer) error {
			for _, h := range orphaned {
				if _, err := tx.Exec(
					`DELETE FROM tracked_block WHERE subscriber_id = $1 AND num = $2 AND hash = $3;`,
					id, h.Num, h.Hash.Hex(),
				); err != nil {
					return err
				}
			}
			return nil
		},
		func(hdrs *headersList) { hdrs.removeMatching(orphaned...) },
	)
}

// removeFinalizedBlocks removes the blocks <= finalized tracked for a subscriber
func (rd *ReorgDetector) removeFinalizedBlocks(ctx context.Context, id string, finalized uint64) error {
	return rd.removeTrackedBlocks(ctx, id,
		func(tx db.Txer) error {
			_, err := tx.Exec(`DELETE FROM tracked_block WHERE subscriber_id = $1 AND num <= $2;`, id, finalized)
			return err
		},
		func(hdrs *headersList) { hdrs.removeUpTo(finalized) },
	)
}

func (rd *ReorgDetector) removeTrackedBlocks(
	ctx context.Context, id string, remove func(db.Txer) error, inMemory func(*headersList),
) (err error) {
	rd.trackedBlocksLock.Lock()
	defer rd.trackedBlocksLock.Unlock()

	tx, err := db.NewTx(ctx, rd.db)
	if err != nil {
		return err
	}
	defer db.RollbackOnErr(tx, &err)

	if err = remove(tx); err != nil {
		return err
	}
	tx.AddCommitCallback(func() {
		if hdrs, ok := rd.trackedBlocks[id]; ok {
			inMemory(hdrs)
		}
	})
	return tx.Commit()
}
