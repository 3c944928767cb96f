package serialization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOdd = errors.New("odd length")

type evenBytes []byte

func (b evenBytes) MarshalNil() ([]byte, error) {
	if len(b)%2 != 0 {
		return nil, errOdd
	}
	return b, nil
}

func (b *evenBytes) UnmarshalNil(buf []byte) error {
	if len(buf)%2 != 0 {
		return errOdd
	}
	*b = append(evenBytes{}, buf...)
	return nil
}

func TestContainers(t *testing.T) {
	t.Parallel()

	values := []evenBytes{{1, 2}, {}, {3, 4, 5, 6}}
	items, err := EncodeContainer(values)
	require.NoError(t, err)

	packed, err := PackContainer(items)
	require.NoError(t, err)
	unpacked, err := UnpackContainer(packed)
	require.NoError(t, err)
	require.Len(t, unpacked, 3)

	decoded, err := DecodeContainer[*evenBytes](unpacked)
	require.NoError(t, err)
	assert.Equal(t, values, decoded)

	_, err = EncodeContainer([]evenBytes{{1, 2}, {3}})
	require.ErrorIs(t, err, errOdd)
	require.ErrorContains(t, err, "element 1")

	_, err = DecodeContainer[*evenBytes]([]EncodedData{{1}})
	require.ErrorIs(t, err, errOdd)

	_, err = UnpackContainer([]byte{0x01})
	require.Error(t, err)
}
