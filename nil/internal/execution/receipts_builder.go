package execution

import (
	"errors"
	"fmt"

	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/rs/zerolog"
)

var sharedLogger = logging.NewLogger("execution")

var ErrSealed = errors.New("block receipts are already sealed")

// SealedBlock holds the receipts of a finished block with their blooms computed.
type SealedBlock struct {
	Number   types.BlockNumber
	Receipts []types.SealedReceipt
	Bloom    types.Bloom
}

// Write stores the block receipts; see db.WriteBlockReceipts.
func (b *SealedBlock) Write(tx db.RwTx) error {
	return db.WriteBlockReceipts(tx, b.Number, b.Receipts)
}

// IndexedLogs returns every log of the block with its position attached.
func (b *SealedBlock) IndexedLogs() []*types.IndexedLog {
	var res []*types.IndexedLog
	logIndex := uint(0)
	for i, r := range b.Receipts {
		logs := r.Logs()
		res = append(res, types.IndexLogs(logs, b.Number, uint(i), logIndex)...)
		logIndex += uint(len(logs))
	}
	return res
}

// BlockReceiptsBuilder collects the receipts of a block in transaction order.
// The builder is single-use: once Seal is called the block is immutable.
type BlockReceiptsBuilder struct {
	number     types.BlockNumber
	receipts   []types.ConsensusReceipt
	collection *types.Receipts[types.SealedReceipt]
	sealed     *SealedBlock

	logger zerolog.Logger
}

// NewBlockReceiptsBuilder starts a block. When collection is not nil the sealed
// receipts are pushed into it.
func NewBlockReceiptsBuilder(number types.BlockNumber, collection *types.Receipts[types.SealedReceipt]) *BlockReceiptsBuilder {
	return &BlockReceiptsBuilder{
		number:     number,
		collection: collection,
		logger:     sharedLogger.With().Stringer(logging.FieldBlockNumber, number).Logger(),
	}
}

func (b *BlockReceiptsBuilder) Len() int {
	return len(b.receipts)
}

func (b *BlockReceiptsBuilder) lastCumulativeGas() types.CumulativeGas {
	if len(b.receipts) == 0 {
		return types.CumulativeGas{}
	}
	return b.receipts[len(b.receipts)-1].CumulativeGasUsed()
}

// Append adds the receipt of the next transaction.
func (b *BlockReceiptsBuilder) Append(receipt types.ConsensusReceipt) error {
	if b.sealed != nil {
		return ErrSealed
	}

	if prev := b.lastCumulativeGas(); receipt.CumulativeGasUsed().Lt(prev) {
		b.logger.Warn().
			Int(logging.FieldTxIndex, len(b.receipts)).
			Stringer(logging.FieldCumulativeGas, receipt.CumulativeGasUsed()).
			Stringer(logging.FieldPrevCumulative, prev).
			Msg("Cumulative gas decreased")
	}

	b.receipts = append(b.receipts, receipt)
	return nil
}

// AppendOutcome builds the next receipt from the gas used by the transaction alone.
func (b *BlockReceiptsBuilder) AppendOutcome(status types.Eip658Value, gasUsed uint64, logs []*types.Log) (types.ConsensusReceipt, error) {
	if b.sealed != nil {
		return types.ConsensusReceipt{}, ErrSealed
	}

	gas, err := b.lastCumulativeGas().AddUint64(gasUsed)
	if err != nil {
		return types.ConsensusReceipt{}, fmt.Errorf("receipt %d: %w", len(b.receipts), err)
	}
	receipt := types.NewReceipt(status, gas, logs)
	return receipt, b.Append(receipt)
}

// Seal computes the receipt blooms and the block bloom. Calling it again returns the same block.
func (b *BlockReceiptsBuilder) Seal() *SealedBlock {
	if b.sealed != nil {
		return b.sealed
	}

	sealed := make([]types.SealedReceipt, 0, len(b.receipts))
	logsNum := 0
	for _, r := range b.receipts {
		sealed = append(sealed, r.WithBloom())
		logsNum += len(r.Logs())
	}

	b.sealed = &SealedBlock{
		Number:   b.number,
		Receipts: sealed,
		Bloom:    types.BlockBloom[types.SealedReceipt, *types.Log](sealed),
	}
	if b.collection != nil {
		b.collection.Push(sealed)
	}

	b.logger.Debug().
		Int(logging.FieldReceiptsNum, len(sealed)).
		Int(logging.FieldLogsNum, logsNum).
		Msg("Sealed block receipts")

	return b.sealed
}

func (b *BlockReceiptsBuilder) Collection() *types.Receipts[types.SealedReceipt] {
	return b.collection
}
