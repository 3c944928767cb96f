package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/NilFoundation/receipts/nil/internal/serialization"
	"github.com/ethereum/go-ethereum/rlp"
)

// ReceiptWithBloom is a receipt paired with the bloom of its logs, computed once.
// Bloom is O(1) here, while Receipt.Bloom hashes every log.
//
// The bloom is trusted to match the receipt logs: the pair is built either by
// Receipt.WithBloom / ReceiptWithBloomFrom, or by decoding, in which case the wire
// value is taken verbatim. There is no way to swap the receipt afterwards.
type ReceiptWithBloom[R TxReceipt[L], L LogView] struct {
	receipt   R
	logsBloom Bloom
}

type SealedReceipt = ReceiptWithBloom[ConsensusReceipt, *Log]

var (
	_ TxReceipt[*Log]              = SealedReceipt{}
	_ rlp.Encoder                  = SealedReceipt{}
	_ rlp.Decoder                  = (*SealedReceipt)(nil)
	_ serialization.NilMarshaler   = SealedReceipt{}
	_ serialization.NilUnmarshaler = (*SealedReceipt)(nil)
	_ json.Marshaler               = SealedReceipt{}
	_ json.Unmarshaler             = (*SealedReceipt)(nil)
	_ TxReceipt[*IndexedLog]       = ReceiptWithBloom[IndexedReceipt, *IndexedLog]{}
	_ serialization.NilUnmarshaler = (*ReceiptWithBloom[IndexedReceipt, *IndexedLog])(nil)
)

func NewReceiptWithBloom[R TxReceipt[L], L LogView](receipt R, logsBloom Bloom) ReceiptWithBloom[R, L] {
	return ReceiptWithBloom[R, L]{receipt: receipt, logsBloom: logsBloom}
}

// ReceiptWithBloomFrom wraps any receipt, taking its bloom from Bloom().
func ReceiptWithBloomFrom[R TxReceipt[L], L LogView](receipt R) ReceiptWithBloom[R, L] {
	return NewReceiptWithBloom[R, L](receipt, receipt.Bloom())
}

func (r ReceiptWithBloom[R, L]) Receipt() R {
	return r.receipt
}

// IntoComponents returns the receipt and the cached bloom.
func (r ReceiptWithBloom[R, L]) IntoComponents() (R, Bloom) {
	return r.receipt, r.logsBloom
}

func (r ReceiptWithBloom[R, L]) StatusOrPostState() Eip658Value {
	return r.receipt.StatusOrPostState()
}

func (r ReceiptWithBloom[R, L]) Status() bool {
	return r.receipt.Status()
}

func (r ReceiptWithBloom[R, L]) Bloom() Bloom {
	return r.logsBloom
}

func (r ReceiptWithBloom[R, L]) BloomCheap() (Bloom, bool) {
	return r.logsBloom, true
}

func (r ReceiptWithBloom[R, L]) CumulativeGasUsed() CumulativeGas {
	return r.receipt.CumulativeGasUsed()
}

func (r ReceiptWithBloom[R, L]) Logs() []L {
	return r.receipt.Logs()
}

func (r ReceiptWithBloom[R, L]) fieldsEncoder() (FieldsEncoder, error) {
	enc, ok := any(r.receipt).(FieldsEncoder)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotFieldsEncoder, r.receipt)
	}
	return enc, nil
}

// EncodedLength is the length of the RLP list produced by EncodeRLP.
func (r ReceiptWithBloom[R, L]) EncodedLength() (int, error) {
	enc, err := r.fieldsEncoder()
	if err != nil {
		return 0, err
	}
	return encodedLengthWithBloom(enc, r.logsBloom), nil
}

// EncodeRLP writes the receipt fields with the cached bloom; nothing is recomputed.
func (r ReceiptWithBloom[R, L]) EncodeRLP(w io.Writer) error {
	enc, err := r.fieldsEncoder()
	if err != nil {
		return err
	}
	return encodeWithBloom(enc, r.logsBloom, w)
}

// DecodeRLP restores both the receipt and the bloom from the wire.
// The receipt type must decode its fields through a pointer receiver.
func (r *ReceiptWithBloom[R, L]) DecodeRLP(s *rlp.Stream) error {
	var receipt R
	dec, ok := any(&receipt).(FieldsDecoder)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotFieldsDecoder, &receipt)
	}
	bloom, err := decodeWithBloom(dec, s)
	if err != nil {
		return err
	}
	*r = NewReceiptWithBloom[R, L](receipt, bloom)
	return nil
}

func (r ReceiptWithBloom[R, L]) MarshalNil() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.EncodeRLP(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *ReceiptWithBloom[R, L]) UnmarshalNil(buf []byte) error {
	return rlp.DecodeBytes(buf, r)
}

var errNotJSONObject = errors.New("receipt is not rendered as a JSON object")

// MarshalJSON renders the receipt object followed by "logsBloom".
func (r ReceiptWithBloom[R, L]) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal(r.receipt)
	if err != nil {
		return nil, err
	}
	inner = bytes.TrimSpace(inner)
	if len(inner) < 2 || inner[0] != '{' || inner[len(inner)-1] != '}' {
		return nil, fmt.Errorf("%w: %T", errNotJSONObject, r.receipt)
	}
	bloom, err := json.Marshal(r.logsBloom)
	if err != nil {
		return nil, err
	}

	res := make([]byte, 0, len(inner)+len(bloom)+16)
	res = append(res, inner[:len(inner)-1]...)
	if len(inner) > 2 {
		res = append(res, ',')
	}
	res = append(res, `"logsBloom":`...)
	res = append(res, bloom...)
	res = append(res, '}')
	return res, nil
}

func (r *ReceiptWithBloom[R, L]) UnmarshalJSON(input []byte) error {
	var receipt R
	if err := json.Unmarshal(input, &receipt); err != nil {
		return err
	}
	var dec struct {
		LogsBloom *Bloom `json:"logsBloom"`
	}
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.LogsBloom == nil {
		return fmt.Errorf("%w 'logsBloom' for ReceiptWithBloom", ErrMissingField)
	}
	*r = NewReceiptWithBloom[R, L](receipt, *dec.LogsBloom)
	return nil
}
