package types

import (
	"encoding/binary"
	"strconv"
)

type BlockNumber uint64

func (bn BlockNumber) Uint64() uint64 {
	return uint64(bn)
}

func (bn BlockNumber) String() string { return strconv.FormatUint(bn.Uint64(), 10) }
func (bn BlockNumber) Type() string   { return "BlockNumber" }

// Bytes returns the big-endian form, so that keys sort in block order.
func (bn BlockNumber) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, bn.Uint64())
}

func (bn *BlockNumber) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return err
	}
	*bn = BlockNumber(v)
	return nil
}

func BytesToBlockNumber(b []byte) (BlockNumber, error) {
	if len(b) != 8 {
		return 0, strconv.ErrSyntax
	}
	return BlockNumber(binary.BigEndian.Uint64(b)), nil
}
