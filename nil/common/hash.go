package common

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	HashSize = ethcommon.HashLength
	AddrSize = ethcommon.AddressLength
)

type (
	Hash    = ethcommon.Hash
	Address = ethcommon.Address
)

var (
	EmptyHash = Hash{}

	HexToHash      = ethcommon.HexToHash
	BytesToHash    = ethcommon.BytesToHash
	HexToAddress   = ethcommon.HexToAddress
	BytesToAddress = ethcommon.BytesToAddress
)
