package explorer

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transaction is a normal transaction as listed by the explorer
type Transaction struct {
	BlockNumber     uint64         `json:"blockNumber"`
	Timestamp       uint64         `json:"timestamp"`
	Hash            common.Hash    `json:"hash"`
	Nonce           uint64         `json:"nonce"`
	From            common.Address `json:"from"`
	To              common.Address `json:"to"`
	Value           *big.Int       `json:"value"`
	Gas             uint64         `json:"gas"`
	GasPrice        *big.Int       `json:"gasPrice"`
	GasUsed         uint64         `json:"gasUsed"`
	IsError         bool           `json:"isError"`
	Input           string         `json:"input"`
	ContractAddress common.Address `json:"contractAddress"`
}

type response struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Result  jsoniter.RawMessage `json:"result"`
}

// rawTransaction is the explorer representation, every field is a string
type rawTransaction struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	Nonce           string `json:"nonce"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	GasUsed         string `json:"gasUsed"`
	IsError         string `json:"isError"`
	Input           string `json:"input"`
	ContractAddress string `json:"contractAddress"`
}

func (r rawTransaction) toTransaction() (Transaction, error) {
	var (
		tx  Transaction
		err error
	)
	if tx.BlockNumber, err = parseUint(r.BlockNumber); err != nil {
		return tx, fmt.Errorf("blockNumber: %w", err)
	}
	if tx.Timestamp, err = parseUint(r.TimeStamp); err != nil {
		return tx, fmt.Errorf("timeStamp: %w", err)
	}
	if tx.Nonce, err = parseUint(r.Nonce); err != nil {
		return tx, fmt.Errorf("nonce: %w", err)
	}
	if tx.Gas, err = parseUint(r.Gas); err != nil {
		return tx, fmt.Errorf("gas: %w", err)
	}
	if tx.GasUsed, err = parseUint(r.GasUsed); err != nil {
		return tx, fmt.Errorf("gasUsed: %w", err)
	}
	if tx.Value, err = parseBig(r.Value); err != nil {
		return tx, fmt.Errorf("value: %w", err)
	}
	if tx.GasPrice, err = parseBig(r.GasPrice); err != nil {
		return tx, fmt.Errorf("gasPrice: %w", err)
	}
	tx.Hash = common.HexToHash(r.Hash)
	tx.From = common.HexToAddress(r.From)
	tx.To = common.HexToAddress(r.To)
	tx.ContractAddress = common.HexToAddress(r.ContractAddress)
	tx.IsError = r.IsError == "1"
	tx.Input = r.Input
	return tx, nil
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64) //nolint:mnd
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10) //nolint:mnd
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
