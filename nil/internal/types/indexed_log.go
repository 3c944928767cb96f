package types

import (
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// IndexedLog is a log together with its position in the chain.
// The position fields are derived by the node and are not part of consensus:
// they are dropped on the wire and restored by whoever serves the log.
type IndexedLog struct {
	Log

	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxIndex     hexutil.Uint   `json:"transactionIndex"`
	LogIndex    hexutil.Uint   `json:"logIndex"`
}

var (
	_ LogView     = (*IndexedLog)(nil)
	_ rlp.Encoder = (*IndexedLog)(nil)
	_ rlp.Decoder = (*IndexedLog)(nil)
)

func (l *IndexedLog) AsLog() *Log {
	if l == nil {
		return nil
	}
	return &l.Log
}

func (l *IndexedLog) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &l.Log)
}

func (l *IndexedLog) DecodeRLP(s *rlp.Stream) error {
	return s.Decode(&l.Log)
}

// IndexLogs attaches positions to the logs of the txIndex-th receipt of a block.
// firstLogIndex is the block-wide index of the first log.
// Nil logs are skipped but still occupy their index.
func IndexLogs[L LogView](logs []L, block BlockNumber, txIndex uint, firstLogIndex uint) []*IndexedLog {
	res := make([]*IndexedLog, 0, len(logs))
	for i, l := range logs {
		log := l.AsLog()
		if log == nil {
			continue
		}
		res = append(res, &IndexedLog{
			Log:         *log,
			BlockNumber: hexutil.Uint64(block),
			TxIndex:     hexutil.Uint(txIndex),
			LogIndex:    hexutil.Uint(firstLogIndex + uint(i)),
		})
	}
	return res
}
