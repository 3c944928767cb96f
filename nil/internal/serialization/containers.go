package serialization

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

type EncodedData = []byte

// NilMarshaler is implemented by values with a canonical byte encoding.
// Everything stored in the db goes through it.
type NilMarshaler interface {
	MarshalNil() ([]byte, error)
}

type NilUnmarshaler interface {
	UnmarshalNil(buf []byte) error
}

// EncodeContainer encodes every element separately, so that single elements can be
// decoded later without touching the rest.
func EncodeContainer[T NilMarshaler](container []T) ([]EncodedData, error) {
	result := make([]EncodedData, 0, len(container))
	for i, data := range container {
		content, err := data.MarshalNil()
		if err != nil {
			return nil, fmt.Errorf("failed to encode element %d: %w", i, err)
		}
		result = append(result, content)
	}
	return result, nil
}

func DecodeContainer[
	T interface {
		~*S
		NilUnmarshaler
	},
	S any,
](dataContainer []EncodedData) ([]S, error) {
	result := make([]S, len(dataContainer))
	for i, rawData := range dataContainer {
		if err := T(&result[i]).UnmarshalNil(rawData); err != nil {
			return nil, fmt.Errorf("failed to decode element %d: %w", i, err)
		}
	}
	return result, nil
}

// PackContainer joins encoded elements into a single RLP list of byte strings.
func PackContainer(items []EncodedData) ([]byte, error) {
	return rlp.EncodeToBytes(items)
}

func UnpackContainer(data []byte) ([]EncodedData, error) {
	var items []EncodedData
	if err := rlp.DecodeBytes(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
