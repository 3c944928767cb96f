package db

import (
	"errors"
	"fmt"

	"github.com/NilFoundation/receipts/nil/internal/serialization"
	"github.com/NilFoundation/receipts/nil/internal/types"
)

type prettyKey interface {
	fmt.Stringer
	Bytes() []byte
}

func Get(tx RoTx, table TableName, key prettyKey) ([]byte, error) {
	data, err := tx.Get(table, key.Bytes())
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: table=%s, key=%s", err, table, key)
	}
	return data, err
}

func readEncodedReceipts(tx RoTx, block types.BlockNumber) ([]serialization.EncodedData, error) {
	raw, err := Get(tx, blockReceiptsTable, block)
	if err != nil {
		return nil, err
	}
	packed, err := decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: block=%s: %w", ErrCorruptedReceipt, block, err)
	}
	items, err := serialization.UnpackContainer(packed)
	if err != nil {
		return nil, fmt.Errorf("%w: block=%s: %w", ErrCorruptedReceipt, block, err)
	}
	return items, nil
}

// WriteBlockReceipts stores the receipts of a block together with the block bloom
// and moves the head forward if the block is newer than the stored one.
func WriteBlockReceipts(tx RwTx, block types.BlockNumber, receipts []types.SealedReceipt) error {
	items, err := serialization.EncodeContainer(receipts)
	if err != nil {
		return err
	}
	packed, err := serialization.PackContainer(items)
	if err != nil {
		return err
	}
	if err := tx.Put(blockReceiptsTable, block.Bytes(), compress(packed)); err != nil {
		return err
	}

	bloom := types.BlockBloom[types.SealedReceipt, *types.Log](receipts)
	if err := tx.Put(blockBloomTable, block.Bytes(), bloom.Bytes()); err != nil {
		return err
	}

	last, err := ReadLastBlockNumber(tx)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	if err != nil || last < block {
		return WriteLastBlockNumber(tx, block)
	}
	return nil
}

func ReadBlockReceipts(tx RoTx, block types.BlockNumber) ([]types.SealedReceipt, error) {
	items, err := readEncodedReceipts(tx, block)
	if err != nil {
		return nil, err
	}
	return serialization.DecodeContainer[*types.SealedReceipt](items)
}

// ReadReceipt decodes the index-th receipt of the block only.
func ReadReceipt(tx RoTx, block types.BlockNumber, index uint) (*types.SealedReceipt, error) {
	items, err := readEncodedReceipts(tx, block)
	if err != nil {
		return nil, err
	}
	if index >= uint(len(items)) {
		return nil, fmt.Errorf("%w: block=%s, index=%d, receipts=%d", ErrIndexOutOfRange, block, index, len(items))
	}

	receipt := new(types.SealedReceipt)
	if err := receipt.UnmarshalNil(items[index]); err != nil {
		return nil, err
	}
	return receipt, nil
}

func CountBlockReceipts(tx RoTx, block types.BlockNumber) (int, error) {
	items, err := readEncodedReceipts(tx, block)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func DeleteBlockReceipts(tx RwTx, block types.BlockNumber) error {
	if err := tx.Delete(blockReceiptsTable, block.Bytes()); err != nil {
		return err
	}
	return tx.Delete(blockBloomTable, block.Bytes())
}

func ReadBlockBloom(tx RoTx, block types.BlockNumber) (types.Bloom, error) {
	data, err := Get(tx, blockBloomTable, block)
	if err != nil {
		return types.Bloom{}, err
	}
	if len(data) != types.BloomByteLength {
		return types.Bloom{}, fmt.Errorf("%w: block=%s, bloom length %d", ErrCorruptedReceipt, block, len(data))
	}
	return types.BytesToBloom(data), nil
}

// ForEachBlockBloom calls fn for every stored block in [from, to] in ascending order.
func ForEachBlockBloom(tx RoTx, from, to types.BlockNumber, fn func(types.BlockNumber, types.Bloom) error) error {
	it, err := tx.Range(blockBloomTable, from.Bytes(), to.Bytes())
	if err != nil {
		return err
	}
	defer it.Close()

	for it.HasNext() {
		key, value, err := it.Next()
		if err != nil {
			return err
		}
		block, err := types.BytesToBlockNumber(key)
		if err != nil {
			return fmt.Errorf("%w: bad block key %x", ErrCorruptedReceipt, key)
		}
		if err := fn(block, types.BytesToBloom(value)); err != nil {
			return err
		}
	}
	return nil
}

func ReadLastBlockNumber(tx RoTx) (types.BlockNumber, error) {
	data, err := tx.Get(LastBlockTable, lastBlockKey)
	if err != nil {
		return 0, err
	}
	return types.BytesToBlockNumber(data)
}

func WriteLastBlockNumber(tx RwTx, block types.BlockNumber) error {
	return tx.Put(LastBlockTable, lastBlockKey, block.Bytes())
}
