package types

import (
	"iter"
	"slices"
)

// Receipts groups receipts by block: the outer index is the position of the block
// relative to the first one held, the inner index is the transaction index.
// It is filled during block assembly and read-only afterwards.
type Receipts[T any] struct {
	ReceiptVec [][]T `json:"receiptVec"`
}

// NewReceipts builds a collection from receipts already grouped by block.
func NewReceipts[T any](blocks ...[]T) Receipts[T] {
	return Receipts[T]{ReceiptVec: blocks}
}

// ReceiptsFromBlock wraps the receipts of a single block.
func ReceiptsFromBlock[T any](block []T) Receipts[T] {
	return Receipts[T]{ReceiptVec: [][]T{block}}
}

// CollectReceipts builds a collection from a sequence of per-block receipts.
func CollectReceipts[T any](blocks iter.Seq[[]T]) Receipts[T] {
	return Receipts[T]{ReceiptVec: slices.Collect(blocks)}
}

func (r *Receipts[T]) Len() int {
	return len(r.ReceiptVec)
}

func (r *Receipts[T]) IsEmpty() bool {
	return len(r.ReceiptVec) == 0
}

// Push appends the receipts of the next block.
func (r *Receipts[T]) Push(block []T) {
	r.ReceiptVec = append(r.ReceiptVec, block)
}

func (r *Receipts[T]) Block(i int) []T {
	return r.ReceiptVec[i]
}

// All iterates over blocks in order.
func (r *Receipts[T]) All() iter.Seq2[int, []T] {
	return slices.All(r.ReceiptVec)
}

// Flatten iterates over every receipt of every block.
func (r *Receipts[T]) Flatten() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, block := range r.ReceiptVec {
			for _, receipt := range block {
				if !yield(receipt) {
					return
				}
			}
		}
	}
}
