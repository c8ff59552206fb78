package common

import (
	"encoding/binary"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/keccak256"
)

// Uint64ToBytes converts a uint64 to a byte slice
func Uint64ToBytes(num uint64) []byte {
	const uint64ByteSize = 8

	bytes := make([]byte, uint64ByteSize)
	binary.BigEndian.PutUint64(bytes, num)

	return bytes
}

// BytesToUint64 converts a byte slice to a uint64
func BytesToUint64(bytes []byte) uint64 {
	return binary.BigEndian.Uint64(bytes)
}

// Keccak256Hash hashes the concatenation of the given strings
func Keccak256Hash(parts ...string) common.Hash {
	data := make([][]byte, 0, len(parts))
	for _, p := range parts {
		data = append(data, []byte(p))
	}
	return common.BytesToHash(keccak256.Hash(data...))
}

// SameAddress compares two hex addresses ignoring checksum and case
func SameAddress(a, b string) bool {
	return strings.EqualFold(common.HexToAddress(a).Hex(), common.HexToAddress(b).Hex())
}

// AddressTopic left pads an address to be used as an indexed log topic
func AddressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), common.HashLength))
}
