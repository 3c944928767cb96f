package types

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// MaxGasBits is the width of the cumulative gas counter.
const MaxGasBits = 128

// CumulativeGas is the running gas total of a block up to and including a transaction.
// It is an unsigned 128-bit integer stored in a uint256.Int; every decoding path
// rejects values that do not fit into 128 bits.
type CumulativeGas struct{ uint256.Int }

var (
	_ rlp.Encoder      = CumulativeGas{}
	_ rlp.Decoder      = (*CumulativeGas)(nil)
	_ json.Marshaler   = CumulativeGas{}
	_ json.Unmarshaler = (*CumulativeGas)(nil)
)

func NewCumulativeGas(val uint64) CumulativeGas {
	return CumulativeGas{*uint256.NewInt(val)}
}

func cumulativeGasFromInt(v *uint256.Int) (CumulativeGas, error) {
	if v.BitLen() > MaxGasBits {
		return CumulativeGas{}, fmt.Errorf("%w: %s", ErrGasOverflow, v.Hex())
	}
	return CumulativeGas{*v}, nil
}

// CumulativeGasFromBig128 builds a value from the high and low 64-bit halves.
func CumulativeGasFromBig128(hi, lo uint64) CumulativeGas {
	return CumulativeGas{uint256.Int{lo, hi, 0, 0}}
}

func (g CumulativeGas) Add(other CumulativeGas) (CumulativeGas, error) {
	var res uint256.Int
	res.Add(&g.Int, &other.Int)
	return cumulativeGasFromInt(&res)
}

func (g CumulativeGas) AddUint64(gas uint64) (CumulativeGas, error) {
	return g.Add(NewCumulativeGas(gas))
}

func (g CumulativeGas) Lt(other CumulativeGas) bool {
	return g.Int.Lt(&other.Int)
}

func (g CumulativeGas) Hex() string {
	return g.Int.Hex()
}

func (g CumulativeGas) String() string {
	return g.Int.Dec()
}

func (g CumulativeGas) Type() string {
	return "CumulativeGas"
}

func (g *CumulativeGas) Set(value string) error {
	var v uint256.Int
	if err := v.SetFromDecimal(value); err != nil {
		return err
	}
	res, err := cumulativeGasFromInt(&v)
	if err != nil {
		return err
	}
	*g = res
	return nil
}

func (g CumulativeGas) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Hex())
}

func (g *CumulativeGas) UnmarshalJSON(input []byte) error {
	var str string
	if err := json.Unmarshal(input, &str); err != nil {
		return fmt.Errorf("gas unmarshal failed for value: %s (%w)", input, err)
	}
	gas, err := CumulativeGasFromHex(str)
	if err != nil {
		return err
	}
	*g = gas
	return nil
}

func CumulativeGasFromHex(s string) (CumulativeGas, error) {
	if !strings.HasPrefix(s, "0x") {
		return CumulativeGas{}, fmt.Errorf("invalid hex format: %s", s)
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		return CumulativeGas{}, fmt.Errorf("invalid gas %q: %w", s, err)
	}
	return cumulativeGasFromInt(v)
}

// rlpSize is the length of the canonical RLP integer encoding.
func (g CumulativeGas) rlpSize() int {
	if g.IsUint64() {
		return rlp.IntSize(g.Uint64())
	}
	return 1 + (g.BitLen()+7)/8
}

func (g CumulativeGas) encode(w rlp.EncoderBuffer) {
	w.WriteUint256(&g.Int)
}

func (g CumulativeGas) EncodeRLP(w io.Writer) error {
	buf := rlp.NewEncoderBuffer(w)
	g.encode(buf)
	return buf.Flush()
}

func (g *CumulativeGas) DecodeRLP(s *rlp.Stream) error {
	var v uint256.Int
	if err := s.ReadUint256(&v); err != nil {
		return err
	}
	res, err := cumulativeGasFromInt(&v)
	if err != nil {
		return err
	}
	*g = res
	return nil
}
