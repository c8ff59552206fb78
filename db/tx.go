package db

import (
	"context"
	"database/sql"

	"github.com/horizontalsystems/chainsync/log"
)

// Tx is a sql.Tx that runs callbacks once the outcome of the transaction is known
type Tx struct {
	*sql.Tx
	rollbackCallbacks []func()
	commitCallbacks   []func()
}

// NewTx begins a transaction on db
func NewTx(ctx context.Context, db DBer) (Txer, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Tx: tx,
	}, nil
}

// AddRollbackCallback registers cb to run after a successful rollback
func (s *Tx) AddRollbackCallback(cb func()) {
	s.rollbackCallbacks = append(s.rollbackCallbacks, cb)
}

// AddCommitCallback registers cb to run after a successful commit
func (s *Tx) AddCommitCallback(cb func()) {
	s.commitCallbacks = append(s.commitCallbacks, cb)
}

func (s *Tx) Commit() error {
	if err := s.Tx.Commit(); err != nil {
		return err
	}
	for _, cb := range s.commitCallbacks {
		cb()
	}
	return nil
}

func (s *Tx) Rollback() error {
	if err := s.Tx.Rollback(); err != nil {
		return err
	}
	for _, cb := range s.rollbackCallbacks {
		cb()
	}
	return nil
}

// RollbackOnErr rolls tx back when *err is not nil. Meant to be deferred.
func RollbackOnErr(tx Txer, err *error) {
	if *err == nil {
		return
	}
	if errRllbck := tx.Rollback(); errRllbck != nil {
		log.Errorf("error while rolling back tx %v", errRllbck)
	}
}
