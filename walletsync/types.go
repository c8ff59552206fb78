package walletsync

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transfer is an ERC-20 Transfer log where a watched account is sender or receiver
type Transfer struct {
	BlockNum uint64         `meddler:"block_num" json:"blockNum"`
	BlockPos uint64         `meddler:"block_pos" json:"blockPos"`
	TxHash   common.Hash    `meddler:"tx_hash,hash" json:"txHash"`
	LogIndex uint           `meddler:"log_index" json:"logIndex"`
	Token    common.Address `meddler:"token,address" json:"token"`
	From     common.Address `meddler:"from_addr,address" json:"from"`
	To       common.Address `meddler:"to_addr,address" json:"to"`
	Value    *big.Int       `meddler:"value,bigint" json:"value"`
}

// Balance is the native balance of an account at a block
type Balance struct {
	BlockNum uint64         `meddler:"block_num" json:"blockNum"`
	Account  common.Address `meddler:"account,address" json:"account"`
	Value    *big.Int       `meddler:"value,bigint" json:"value"`
}

// Transaction is a transaction of an account fetched from the transaction source
type Transaction struct {
	Account         common.Address `meddler:"account,address" json:"account"`
	Hash            common.Hash    `meddler:"hash,hash" json:"hash"`
	BlockNum        uint64         `meddler:"block_num" json:"blockNum"`
	Timestamp       uint64         `meddler:"timestamp" json:"timestamp"`
	Nonce           uint64         `meddler:"nonce" json:"nonce"`
	From            common.Address `meddler:"from_addr,address" json:"from"`
	To              common.Address `meddler:"to_addr,address" json:"to"`
	Value           *big.Int       `meddler:"value,bigint" json:"value"`
	GasUsed         uint64         `meddler:"gas_used" json:"gasUsed"`
	GasPrice        *big.Int       `meddler:"gas_price,bigint" json:"gasPrice"`
	IsError         bool           `meddler:"is_error" json:"isError"`
	ContractAddress common.Address `meddler:"contract,address" json:"contractAddress"`
}

// Event is what the downloader appends to a block
type Event struct {
	Transfer *Transfer
	Balance  *Balance
}
