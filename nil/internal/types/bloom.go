package types

import (
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

const BloomByteLength = ethtypes.BloomByteLength

type Bloom = ethtypes.Bloom

var BytesToBloom = ethtypes.BytesToBloom

// LogsBloom computes the bloom filter of the logs: the address and every topic
// of each log set three bits.
func LogsBloom[L LogView](logs []L) Bloom {
	var bin Bloom
	for _, l := range logs {
		log := l.AsLog()
		if log == nil {
			continue
		}
		bin.Add(log.Address.Bytes())
		for _, topic := range log.Topics {
			bin.Add(topic[:])
		}
	}
	return bin
}

// MergeBlooms returns the bitwise OR of the filters.
func MergeBlooms(blooms ...Bloom) Bloom {
	var res Bloom
	for _, b := range blooms {
		for i := range res {
			res[i] |= b[i]
		}
	}
	return res
}

// BlockBloom aggregates the blooms of a block's receipts.
// Cached blooms are used when present; bare receipts are hashed on the spot.
func BlockBloom[R TxReceipt[L], L LogView](receipts []R) Bloom {
	var bin Bloom
	for _, r := range receipts {
		b, ok := r.BloomCheap()
		if !ok {
			b = r.Bloom()
		}
		bin = MergeBlooms(bin, b)
	}
	return bin
}

// BloomContainsLog reports whether the bloom may contain the address and all the topics of the log.
func BloomContainsLog(bloom Bloom, log *Log) bool {
	if !bloom.Test(log.Address.Bytes()) {
		return false
	}
	for _, topic := range log.Topics {
		if !bloom.Test(topic[:]) {
			return false
		}
	}
	return true
}
