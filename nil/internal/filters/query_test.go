package filters

import (
	"encoding/json"
	"testing"

	"github.com/NilFoundation/receipts/nil/common"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterQueryUnmarshal(t *testing.T) {
	t.Parallel()

	topic1 := "0x0100000000000000000000000000000000000000000000000000000000000000"
	topic2 := "0x0200000000000000000000000000000000000000000000000000000000000000"
	address := "0x0000000000000000000000000000000000000011"

	t.Run("Full", func(t *testing.T) {
		t.Parallel()

		var q FilterQuery
		require.NoError(t, json.Unmarshal([]byte(`{
			"fromBlock": "0x1",
			"toBlock": "0x10",
			"address": "`+address+`",
			"topics": ["`+topic1+`", null, ["`+topic1+`", "`+topic2+`"]]
		}`), &q))

		require.NotNil(t, q.FromBlock)
		require.NotNil(t, q.ToBlock)
		assert.Equal(t, types.BlockNumber(1), *q.FromBlock)
		assert.Equal(t, types.BlockNumber(16), *q.ToBlock)
		assert.Equal(t, []common.Address{common.HexToAddress(address)}, q.Addresses)
		assert.Equal(t, [][]common.Hash{
			{common.HexToHash(topic1)},
			nil,
			{common.HexToHash(topic1), common.HexToHash(topic2)},
		}, q.Topics)
	})

	t.Run("AddressList", func(t *testing.T) {
		t.Parallel()

		var q FilterQuery
		require.NoError(t, json.Unmarshal([]byte(`{"address": ["`+address+`", "`+address+`"]}`), &q))
		assert.Len(t, q.Addresses, 2)
		assert.Nil(t, q.FromBlock)
		assert.Nil(t, q.Topics)
	})

	t.Run("NullInAlternatives", func(t *testing.T) {
		t.Parallel()

		var q FilterQuery
		require.NoError(t, json.Unmarshal([]byte(`{"topics": [[null, "`+topic1+`"]]}`), &q))
		assert.Equal(t, [][]common.Hash{nil}, q.Topics)
	})

	t.Run("Errors", func(t *testing.T) {
		t.Parallel()

		var q FilterQuery
		require.Error(t, json.Unmarshal([]byte(`{"address": "0x01"}`), &q))
		require.Error(t, json.Unmarshal([]byte(`{"address": [1]}`), &q))
		require.Error(t, json.Unmarshal([]byte(`{"address": 1}`), &q))
		require.Error(t, json.Unmarshal([]byte(`{"topics": ["0x01"]}`), &q))
		require.Error(t, json.Unmarshal([]byte(`{"topics": [1]}`), &q))
		require.ErrorIs(t, json.Unmarshal([]byte(`{"fromBlock": "0x2", "toBlock": "0x1"}`), &q), ErrInvalidRange)
	})
}

func TestMatcherBloom(t *testing.T) {
	t.Parallel()

	address := common.HexToAddress("0x01")
	log := types.NewLog(address, []byte{}, []common.Hash{{0x01}, {0x02}})
	bloom := types.LogsBloom([]*types.Log{log})

	assert.True(t, NewMatcher(&FilterQuery{}).MatchBloom(types.Bloom{}))
	assert.True(t, NewMatcher(&FilterQuery{Addresses: []common.Address{address}}).MatchBloom(bloom))
	assert.False(t, NewMatcher(&FilterQuery{Addresses: []common.Address{address}}).MatchBloom(types.Bloom{}))
	assert.True(t, NewMatcher(&FilterQuery{Topics: [][]common.Hash{{}, {{0x02}}}}).MatchBloom(bloom))
	assert.True(t, NewMatcher(&FilterQuery{Topics: [][]common.Hash{{{0xee}, {0x01}}}}).MatchBloom(bloom))
	assert.False(t, NewMatcher(&FilterQuery{Topics: [][]common.Hash{{{0x01}}, {{0xee}}}}).MatchBloom(bloom))
}

func TestMatchReceipts(t *testing.T) {
	t.Parallel()

	address := common.HexToAddress("0x01")
	log := types.NewLog(address, []byte{}, []common.Hash{{0x01}})
	receipt := types.NewReceipt(types.NewEip658Status(true), types.NewCumulativeGas(1), []*types.Log{log})
	matcher := NewMatcher(&FilterQuery{Addresses: []common.Address{address}})

	// Bare receipts have no cached bloom and are always scanned.
	assert.Equal(t, []*types.Log{log},
		MatchReceipts[types.ConsensusReceipt, *types.Log](matcher, []types.ConsensusReceipt{receipt}))
	assert.Equal(t, []*types.Log{log},
		MatchReceipts[types.SealedReceipt, *types.Log](matcher, []types.SealedReceipt{receipt.WithBloom()}))

	// A cached bloom that excludes the query skips the logs.
	empty := types.NewReceiptWithBloom[types.ConsensusReceipt, *types.Log](receipt, types.Bloom{})
	assert.Empty(t, MatchReceipts[types.SealedReceipt, *types.Log](matcher, []types.SealedReceipt{empty}))

	other := NewMatcher(&FilterQuery{Addresses: []common.Address{common.HexToAddress("0x02")}})
	assert.Empty(t, MatchReceipts[types.ConsensusReceipt, *types.Log](other, []types.ConsensusReceipt{receipt}))
}
