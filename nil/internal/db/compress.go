package db

import (
	"github.com/NilFoundation/receipts/nil/common/check"
	"github.com/klauspost/compress/zstd"
)

// Both are safe for concurrent EncodeAll/DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	check.PanicIfErr(err)
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	check.PanicIfErr(err)
}

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)))
}

func decompress(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}
