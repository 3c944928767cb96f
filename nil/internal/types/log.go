package types

import (
	"github.com/NilFoundation/receipts/nil/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// LogView is implemented by every log representation a receipt can carry.
// AsLog exposes the consensus part of the log: what is hashed into the bloom
// and written to the wire.
type LogView interface {
	AsLog() *Log
}

type Logs []*Log

type Log struct {
	// Address of the contract that generated the event
	Address common.Address `json:"address"`
	// List of topics provided by the contract
	Topics []common.Hash `json:"topics"`
	// Supplied by the contract, usually ABI-encoded
	Data hexutil.Bytes `json:"data"`
}

var _ LogView = (*Log)(nil)

func NewLog(address common.Address, data []byte, topics []common.Hash) *Log {
	return &Log{
		Address: address,
		Topics:  topics,
		Data:    data,
	}
}

func (l *Log) AsLog() *Log {
	return l
}

func (l *Log) TopicsNum() int {
	return len(l.Topics)
}
