package syncsource

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/db"
	"github.com/horizontalsystems/chainsync/syncsource/migrations"
	"github.com/russross/meddler"
)

const evmSyncSourceNameKey = "evm_sync_source_name"

// Storage persists the user choices: the selected source per blockchain and the custom sources
type Storage interface {
	SyncSourceName(bt blockchain.Type) (string, error)
	SaveSyncSourceName(bt blockchain.Type, name string) error
	CustomSources(bt blockchain.Type) ([]EvmSyncSource, error)
	SaveCustomSource(bt blockchain.Type, source EvmSyncSource) error
	DeleteCustomSource(bt blockchain.Type, id string) error
}

type customSourceRow struct {
	Fingerprint   common.Hash `meddler:"fingerprint,hash"`
	ID            string      `meddler:"id"`
	BlockchainUID string      `meddler:"blockchain_uid"`
	Name          string      `meddler:"name"`
	RpcKind       string      `meddler:"rpc_kind"`
	RpcURLs       string      `meddler:"rpc_urls"`
	RpcAuth       string      `meddler:"rpc_auth"`
	TxName        string      `meddler:"tx_name"`
	TxAPIURL      string      `meddler:"tx_api_url"`
	TxBaseURL     string      `meddler:"tx_base_url"`
	TxAPIKey      string      `meddler:"tx_api_key"`
	CreatedAt     int64       `meddler:"created_at"`
}

func (r *customSourceRow) toSource() EvmSyncSource {
	return EvmSyncSource{
		ID:   r.ID,
		Name: r.Name,
		RPC: RpcSource{
			Kind: RpcKind(r.RpcKind),
			URLs: strings.Split(r.RpcURLs, ","),
			Auth: r.RpcAuth,
		},
		Transaction: TransactionSource{
			Name: r.TxName,
			Etherscan: Etherscan{
				APIBaseURL: r.TxAPIURL,
				TxBaseURL:  r.TxBaseURL,
				APIKey:     r.TxAPIKey,
			},
		},
		Custom: true,
	}
}

// SQLStorage is the sqlite implementation of Storage
type SQLStorage struct {
	db *sql.DB
}

// NewSQLStorage runs the migrations and opens the DB at dbPath
func NewSQLStorage(dbPath string) (*SQLStorage, error) {
	if err := migrations.RunMigrations(dbPath); err != nil {
		return nil, err
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLStorage{db: database}, nil
}

// SyncSourceName returns the stored selection, an empty string if nothing was saved
func (s *SQLStorage) SyncSourceName(bt blockchain.Type) (string, error) {
	var name string
	err := s.db.QueryRow(
		`SELECT value FROM blockchain_setting WHERE blockchain_uid = $1 AND key = $2;`,
		bt.UID(), evmSyncSourceNameKey,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

func (s *SQLStorage) SaveSyncSourceName(bt blockchain.Type, name string) error {
	_, err := s.db.Exec(`
		INSERT INTO blockchain_setting (blockchain_uid, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (blockchain_uid, key) DO UPDATE SET value = excluded.value;
	`, bt.UID(), evmSyncSourceNameKey, name)
	return err
}

func (s *SQLStorage) CustomSources(bt blockchain.Type) ([]EvmSyncSource, error) {
	rows := []*customSourceRow{}
	err := meddler.QueryAll(s.db, &rows, `
		SELECT * FROM custom_sync_source WHERE blockchain_uid = $1 ORDER BY created_at ASC, name ASC;
	`, bt.UID())
	if err != nil {
		return nil, err
	}
	sources := make([]EvmSyncSource, 0, len(rows))
	for _, r := range rows {
		sources = append(sources, r.toSource())
	}
	return sources, nil
}

func (s *SQLStorage) SaveCustomSource(bt blockchain.Type, source EvmSyncSource) error {
	row := &customSourceRow{
		Fingerprint:   source.Fingerprint(),
		ID:            source.ID,
		BlockchainUID: bt.UID(),
		Name:          source.Name,
		RpcKind:       string(source.RPC.Kind),
		RpcURLs:       strings.Join(source.RPC.URLs, ","),
		RpcAuth:       source.RPC.Auth,
		TxName:        source.Transaction.Name,
		TxAPIURL:      source.Transaction.Etherscan.APIBaseURL,
		TxBaseURL:     source.Transaction.Etherscan.TxBaseURL,
		TxAPIKey:      source.Transaction.Etherscan.APIKey,
		CreatedAt:     time.Now().UnixNano(),
	}
	if err := meddler.Insert(s.db, "custom_sync_source", row); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicatedSyncSource, source.Name)
		}
		return err
	}
	return nil
}

func (s *SQLStorage) DeleteCustomSource(bt blockchain.Type, id string) error {
	res, err := s.db.Exec(
		`DELETE FROM custom_sync_source WHERE blockchain_uid = $1 AND id = $2;`, bt.UID(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// Close closes the underlying DB
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
