package store

import (
	"context"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/execution"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

const (
	blockFlag = "block"
	indexFlag = "index"
)

type putParams struct {
	block types.BlockNumber
}

type putResult struct {
	Block     hexutil.Uint64 `json:"blockNumber"`
	Receipts  int            `json:"receipts"`
	LogsBloom types.Bloom    `json:"logsBloom"`
}

func putCommand(open opener) *cobra.Command {
	params := &putParams{}

	cmd := &cobra.Command{
		Use:   "put [json | -]",
		Short: "Store the receipts of a block",
		Long: "Store the receipts of a block given as a JSON array in transaction order. " +
			"Blooms are recomputed from the logs; an existing block is overwritten.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := common.ReadInput(cmd, args[0])
			if err != nil {
				return err
			}
			receipts, err := common.ParseReceipts(input)
			if err != nil {
				return err
			}

			return withStore(cmd, open, func(ctx context.Context, s *Store) error {
				sealed, err := putBlock(ctx, s, params.block, receipts)
				if err != nil {
					return err
				}
				return common.PrintJSON(cmd, putResult{
					Block:     hexutil.Uint64(sealed.Number),
					Receipts:  len(sealed.Receipts),
					LogsBloom: sealed.Bloom,
				})
			})
		},
	}

	cmd.Flags().Var(&params.block, blockFlag, "Block number")
	_ = cmd.MarkFlagRequired(blockFlag)

	return cmd
}

func putBlock(ctx context.Context, s *Store, block types.BlockNumber, receipts []types.SealedReceipt) (*execution.SealedBlock, error) {
	builder := execution.NewBlockReceiptsBuilder(block, nil)
	for _, r := range receipts {
		if err := builder.Append(r.Receipt()); err != nil {
			return nil, err
		}
	}
	sealed := builder.Seal()
	if err := s.Receipts.Store(ctx, sealed); err != nil {
		return nil, err
	}

	logger.Debug().
		Stringer(logging.FieldBlockNumber, block).
		Int(logging.FieldReceiptsNum, len(sealed.Receipts)).
		Msg("Stored block receipts")
	return sealed, nil
}
