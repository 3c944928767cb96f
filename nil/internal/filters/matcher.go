package filters

import (
	"github.com/NilFoundation/receipts/nil/common"
	"github.com/NilFoundation/receipts/nil/internal/types"
	mapset "github.com/deckarep/golang-set/v2"
)

// Matcher is a compiled FilterQuery. It is immutable and safe for concurrent use.
type Matcher struct {
	addresses mapset.Set[common.Address]
	// nil entries match any topic
	topics []mapset.Set[common.Hash]
}

func NewMatcher(query *FilterQuery) *Matcher {
	m := &Matcher{
		addresses: mapset.NewThreadUnsafeSet(query.Addresses...),
		topics:    make([]mapset.Set[common.Hash], len(query.Topics)),
	}
	for i, alternatives := range query.Topics {
		if len(alternatives) > 0 {
			m.topics[i] = mapset.NewThreadUnsafeSet(alternatives...)
		}
	}
	return m
}

// MatchBloom reports whether a log matching the query may be covered by the bloom.
// False positives are possible, false negatives are not.
func (m *Matcher) MatchBloom(bloom types.Bloom) bool {
	if m.addresses.Cardinality() > 0 && !anyInBloom(bloom, m.addresses, func(a common.Address) []byte { return a.Bytes() }) {
		return false
	}
	for _, alternatives := range m.topics {
		if alternatives == nil {
			continue
		}
		if !anyInBloom(bloom, alternatives, func(h common.Hash) []byte { return h.Bytes() }) {
			return false
		}
	}
	return true
}

func anyInBloom[T comparable](bloom types.Bloom, values mapset.Set[T], toBytes func(T) []byte) bool {
	found := false
	values.Each(func(v T) bool {
		found = bloom.Test(toBytes(v))
		return found
	})
	return found
}

func (m *Matcher) MatchLog(log *types.Log) bool {
	if m.addresses.Cardinality() > 0 && !m.addresses.Contains(log.Address) {
		return false
	}
	if len(m.topics) > log.TopicsNum() {
		return false
	}
	for i, alternatives := range m.topics {
		if alternatives != nil && !alternatives.Contains(log.Topics[i]) {
			return false
		}
	}
	return true
}

// MatchReceipts returns the matching logs of the receipts in order.
// Receipts with a cached bloom that excludes the query are skipped without looking at their logs.
func MatchReceipts[R types.TxReceipt[L], L types.LogView](m *Matcher, receipts []R) []L {
	var res []L
	for _, r := range receipts {
		if bloom, ok := r.BloomCheap(); ok && !m.MatchBloom(bloom) {
			continue
		}
		for _, l := range r.Logs() {
			if m.MatchLog(l.AsLog()) {
				res = append(res, l)
			}
		}
	}
	return res
}

// MatchBlock is MatchReceipts for the receipts of a stored block; positions are attached to the result.
func MatchBlock(m *Matcher, block types.BlockNumber, receipts []types.SealedReceipt) []*types.IndexedLog {
	var res []*types.IndexedLog
	logIndex := uint(0)
	for i, r := range receipts {
		logs := r.Logs()
		if m.MatchBloom(r.Bloom()) {
			for _, l := range types.IndexLogs(logs, block, uint(i), logIndex) {
				if m.MatchLog(&l.Log) {
					res = append(res, l)
				}
			}
		}
		logIndex += uint(len(logs))
	}
	return res
}
