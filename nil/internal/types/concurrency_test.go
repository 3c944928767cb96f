package types

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

var (
	errBloomMismatch    = errors.New("bloom mismatch")
	errEncodingMismatch = errors.New("encoding mismatch")
)

// Receipts are read-only once built and may be shared between goroutines.
func TestReceiptsConcurrentReaders(t *testing.T) {
	defer goleak.VerifyNone(t)

	var receipts Receipts[SealedReceipt]
	for i := range 4 {
		gas := NewCumulativeGas(uint64(i + 1))
		receipts.Push([]SealedReceipt{
			NewReceipt(NewEip658Status(i%2 == 0), gas, newTestReceipt().Logs()).WithBloom(),
		})
	}
	expected := BlockBloom[SealedReceipt, *Log](receipts.Block(0))
	expectedEncoding, err := rlp.EncodeToBytes(receipts.Block(0)[0])
	require.NoError(t, err)

	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			for range 100 {
				if BlockBloom[SealedReceipt, *Log](receipts.Block(0)) != expected {
					return errBloomMismatch
				}
				var buf bytes.Buffer
				if err := receipts.Block(0)[0].EncodeRLP(&buf); err != nil {
					return err
				}
				if !bytes.Equal(buf.Bytes(), expectedEncoding) {
					return errEncodingMismatch
				}
				for r := range receipts.Flatten() {
					_ = r.Bloom()
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
