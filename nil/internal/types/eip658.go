package types

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/NilFoundation/receipts/nil/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// Eip658Value is the outcome of a transaction as recorded in its receipt.
// Receipts produced after EIP-658 carry a success flag, older ones carry the
// post-transaction state root. A value holds exactly one of the two.
// The zero value is a failed EIP-658 status.
type Eip658Value struct {
	postState common.Hash
	isRoot    bool
	success   bool
}

var (
	_ rlp.Encoder      = Eip658Value{}
	_ rlp.Decoder      = (*Eip658Value)(nil)
	_ json.Marshaler   = Eip658Value{}
	_ json.Unmarshaler = (*Eip658Value)(nil)
)

func NewEip658Status(success bool) Eip658Value {
	return Eip658Value{success: success}
}

func NewPostState(root common.Hash) Eip658Value {
	return Eip658Value{postState: root, isRoot: true}
}

func (v Eip658Value) IsEip658() bool {
	return !v.isRoot
}

func (v Eip658Value) PostState() (common.Hash, bool) {
	return v.postState, v.isRoot
}

// CoerceStatus reports the outcome as a boolean.
// Pre-EIP-658 receipts never recorded failures, so a post-state root counts as success.
func (v Eip658Value) CoerceStatus() bool {
	return v.isRoot || v.success
}

func (v Eip658Value) String() string {
	if v.isRoot {
		return "root:" + v.postState.Hex()
	}
	if v.success {
		return "status:1"
	}
	return "status:0"
}

// rlpSize is the encoded length: a single byte for the flag, a 32-byte string for the root.
func (v Eip658Value) rlpSize() int {
	if v.isRoot {
		return 1 + common.HashSize
	}
	return 1
}

func (v Eip658Value) encode(w rlp.EncoderBuffer) {
	if v.isRoot {
		w.WriteBytes(v.postState[:])
		return
	}
	w.WriteBool(v.success)
}

func (v Eip658Value) EncodeRLP(w io.Writer) error {
	buf := rlp.NewEncoderBuffer(w)
	v.encode(buf)
	return buf.Flush()
}

// DecodeRLP selects the variant by payload length: an empty string or a single
// byte is a status flag, 32 bytes are a state root.
func (v *Eip658Value) DecodeRLP(s *rlp.Stream) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	switch len(b) {
	case 0:
		*v = NewEip658Status(false)
	case 1:
		*v = NewEip658Status(b[0] != 0)
	case common.HashSize:
		*v = NewPostState(common.BytesToHash(b))
	default:
		return fmt.Errorf("%w: %d", ErrInvalidStatusLength, len(b))
	}
	return nil
}

// eip658JSON holds the two mutually exclusive keys an outcome contributes to a receipt object.
type eip658JSON struct {
	Status *eip658Status `json:"status,omitempty"`
	Root   *common.Hash  `json:"root,omitempty"`
}

func (v Eip658Value) toJSON() eip658JSON {
	if v.isRoot {
		root := v.postState
		return eip658JSON{Root: &root}
	}
	status := eip658Status(v.success)
	return eip658JSON{Status: &status}
}

func (enc eip658JSON) toValue() (Eip658Value, error) {
	switch {
	case enc.Status != nil && enc.Root != nil:
		return Eip658Value{}, ErrConflictingOutcome
	case enc.Root != nil:
		return NewPostState(*enc.Root), nil
	case enc.Status != nil:
		return NewEip658Status(bool(*enc.Status)), nil
	default:
		return Eip658Value{}, ErrMissingOutcome
	}
}

func (v Eip658Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSON())
}

func (v *Eip658Value) UnmarshalJSON(input []byte) error {
	var dec eip658JSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	res, err := dec.toValue()
	if err != nil {
		return err
	}
	*v = res
	return nil
}

// eip658Status is rendered as a hex quantity ("0x0"/"0x1"). Decoding also accepts JSON booleans.
type eip658Status bool

func (s eip658Status) MarshalJSON() ([]byte, error) {
	if s {
		return json.Marshal(hexutil.Uint64(1))
	}
	return json.Marshal(hexutil.Uint64(0))
}

func (s *eip658Status) UnmarshalJSON(input []byte) error {
	var flag bool
	if err := json.Unmarshal(input, &flag); err == nil {
		*s = eip658Status(flag)
		return nil
	}

	var quantity hexutil.Uint64
	if err := json.Unmarshal(input, &quantity); err != nil {
		return fmt.Errorf("invalid receipt status %s: %w", input, err)
	}
	switch quantity {
	case 0:
		*s = false
	case 1:
		*s = true
	default:
		return fmt.Errorf("invalid receipt status %s", input)
	}
	return nil
}
