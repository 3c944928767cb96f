package types

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// bloomRLPSize is the encoded length of a bloom: a two-byte length header plus 256 bytes.
const bloomRLPSize = 3 + BloomByteLength

// TxReceipt is the read interface shared by bare receipts and receipts with a cached bloom.
type TxReceipt[L LogView] interface {
	StatusOrPostState() Eip658Value
	Status() bool
	// Bloom returns the logs bloom. It may be computed on every call; use BloomCheap to
	// find out whether a cached value is available.
	Bloom() Bloom
	BloomCheap() (Bloom, bool)
	CumulativeGasUsed() CumulativeGas
	Logs() []L
}

// FieldsEncoder writes the receipt fields without the outer list header.
// The bloom is supplied by the caller, so that the owner of a cached bloom decides
// which value goes to the wire.
type FieldsEncoder interface {
	EncodedFieldsLength(bloom Bloom) int
	EncodeFields(bloom Bloom, w rlp.EncoderBuffer) error
}

// FieldsDecoder reads the fields written by FieldsEncoder and returns the bloom found on the wire.
type FieldsDecoder interface {
	DecodeFields(s *rlp.Stream) (Bloom, error)
}

type RlpReceipt interface {
	FieldsEncoder
	FieldsDecoder
}

// Receipt is the consensus part of a transaction receipt.
// The field order is the wire order: status, cumulative gas, (bloom), logs.
// A receipt is immutable once built; a different outcome means a new receipt.
type Receipt[L LogView] struct {
	status            Eip658Value
	cumulativeGasUsed CumulativeGas
	logs              []L
}

type (
	ConsensusReceipt = Receipt[*Log]
	IndexedReceipt   = Receipt[*IndexedLog]
)

var (
	_ TxReceipt[*Log] = ConsensusReceipt{}
	_ RlpReceipt      = (*ConsensusReceipt)(nil)
	_ rlp.Encoder     = ConsensusReceipt{}
	_ rlp.Decoder     = (*ConsensusReceipt)(nil)
)

func NewReceipt[L LogView](status Eip658Value, cumulativeGasUsed CumulativeGas, logs []L) Receipt[L] {
	return Receipt[L]{
		status:            status,
		cumulativeGasUsed: cumulativeGasUsed,
		logs:              logs,
	}
}

// BloomSlow computes the logs bloom. The cost is linear in the number of logs and topics;
// WithBloom caches the result.
func (r Receipt[L]) BloomSlow() Bloom {
	return LogsBloom(r.logs)
}

// WithBloom computes the bloom and pairs it with the receipt.
func (r Receipt[L]) WithBloom() ReceiptWithBloom[Receipt[L], L] {
	return NewReceiptWithBloom[Receipt[L], L](r, r.BloomSlow())
}

func (r Receipt[L]) StatusOrPostState() Eip658Value {
	return r.status
}

func (r Receipt[L]) Status() bool {
	return r.status.CoerceStatus()
}

func (r Receipt[L]) Bloom() Bloom {
	return r.BloomSlow()
}

func (r Receipt[L]) BloomCheap() (Bloom, bool) {
	return Bloom{}, false
}

func (r Receipt[L]) CumulativeGasUsed() CumulativeGas {
	return r.cumulativeGasUsed
}

func (r Receipt[L]) Logs() []L {
	return r.logs
}

func (r Receipt[L]) EncodedFieldsLength(bloom Bloom) int {
	logs, err := rlp.EncodeToBytes(r.logs)
	if err != nil {
		// Logs that cannot be encoded will fail in EncodeFields too.
		return 0
	}
	return r.status.rlpSize() + r.cumulativeGasUsed.rlpSize() + bloomRLPSize + len(logs)
}

func (r Receipt[L]) EncodeFields(bloom Bloom, w rlp.EncoderBuffer) error {
	r.status.encode(w)
	r.cumulativeGasUsed.encode(w)
	w.WriteBytes(bloom[:])
	if err := rlp.Encode(w, r.logs); err != nil {
		return fmt.Errorf("failed to encode logs: %w", err)
	}
	return nil
}

func (r *Receipt[L]) DecodeFields(s *rlp.Stream) (Bloom, error) {
	var (
		status Eip658Value
		gas    CumulativeGas
		bloom  Bloom
		logs   []L
	)
	if err := s.Decode(&status); err != nil {
		return Bloom{}, fmt.Errorf("failed to decode status: %w", err)
	}
	if err := s.Decode(&gas); err != nil {
		return Bloom{}, fmt.Errorf("failed to decode cumulative gas: %w", err)
	}
	if err := s.Decode(&bloom); err != nil {
		return Bloom{}, fmt.Errorf("failed to decode logs bloom: %w", err)
	}
	if err := s.Decode(&logs); err != nil {
		return Bloom{}, fmt.Errorf("failed to decode logs: %w", err)
	}
	if len(logs) == 0 {
		logs = nil
	}

	*r = NewReceipt(status, gas, logs)
	return bloom, nil
}

// EncodedLengthWithBloom is the length of the fields together with the list header.
func (r Receipt[L]) EncodedLengthWithBloom(bloom Bloom) int {
	return encodedLengthWithBloom(r, bloom)
}

// EncodeWithBloom writes the receipt as an RLP list.
func (r Receipt[L]) EncodeWithBloom(bloom Bloom, w io.Writer) error {
	return encodeWithBloom(r, bloom, w)
}

// DecodeWithBloom reads a receipt written by EncodeWithBloom.
func (r *Receipt[L]) DecodeWithBloom(s *rlp.Stream) (Bloom, error) {
	return decodeWithBloom(r, s)
}

// EncodeRLP writes the consensus encoding. The bloom is computed from the logs;
// encode a ReceiptWithBloom to avoid that.
func (r Receipt[L]) EncodeRLP(w io.Writer) error {
	return r.EncodeWithBloom(r.BloomSlow(), w)
}

// DecodeRLP reads the consensus encoding and drops the bloom.
func (r *Receipt[L]) DecodeRLP(s *rlp.Stream) error {
	_, err := r.DecodeWithBloom(s)
	return err
}

func encodedLengthWithBloom(r FieldsEncoder, bloom Bloom) int {
	return int(rlp.ListSize(uint64(r.EncodedFieldsLength(bloom))))
}

func encodeWithBloom(r FieldsEncoder, bloom Bloom, w io.Writer) error {
	buf := rlp.NewEncoderBuffer(w)
	idx := buf.List()
	if err := r.EncodeFields(bloom, buf); err != nil {
		return err
	}
	buf.ListEnd(idx)
	return buf.Flush()
}

func decodeWithBloom(r FieldsDecoder, s *rlp.Stream) (Bloom, error) {
	if _, err := s.List(); err != nil {
		return Bloom{}, err
	}
	bloom, err := r.DecodeFields(s)
	if err != nil {
		return Bloom{}, err
	}
	if err := s.ListEnd(); err != nil {
		return Bloom{}, err
	}
	return bloom, nil
}

type receiptJSON[L LogView] struct {
	eip658JSON
	CumulativeGasUsed *CumulativeGas `json:"cumulativeGasUsed"`
	Logs              []L            `json:"logs"`
}

func (r Receipt[L]) MarshalJSON() ([]byte, error) {
	logs := r.logs
	if logs == nil {
		logs = []L{}
	}
	gas := r.cumulativeGasUsed
	return json.Marshal(receiptJSON[L]{
		eip658JSON:        r.status.toJSON(),
		CumulativeGasUsed: &gas,
		Logs:              logs,
	})
}

func (r *Receipt[L]) UnmarshalJSON(input []byte) error {
	var dec receiptJSON[L]
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	status, err := dec.eip658JSON.toValue()
	if err != nil {
		return err
	}
	if dec.CumulativeGasUsed == nil {
		return fmt.Errorf("%w 'cumulativeGasUsed' for Receipt", ErrMissingField)
	}
	if dec.Logs == nil {
		return fmt.Errorf("%w 'logs' for Receipt", ErrMissingField)
	}
	logs := dec.Logs
	if len(logs) == 0 {
		logs = nil
	}

	*r = NewReceipt(status, *dec.CumulativeGasUsed, logs)
	return nil
}
