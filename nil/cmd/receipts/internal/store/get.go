package store

import (
	"context"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/spf13/cobra"
)

type getParams struct {
	block types.BlockNumber
	index uint
}

func getReceiptsCommand(open opener) *cobra.Command {
	params := &getParams{}

	cmd := &cobra.Command{
		Use:          "get",
		Short:        "Print the stored receipts of a block",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			single := cmd.Flags().Changed(indexFlag)
			return withStore(cmd, open, func(ctx context.Context, s *Store) error {
				if single {
					receipt, err := s.Receipts.Receipt(ctx, params.block, params.index)
					if err != nil {
						return err
					}
					return common.PrintJSON(cmd, receipt)
				}

				receipts, err := s.Receipts.BlockReceipts(ctx, params.block)
				if err != nil {
					return err
				}
				return common.PrintJSON(cmd, receipts)
			})
		},
	}

	cmd.Flags().Var(&params.block, blockFlag, "Block number")
	cmd.Flags().UintVar(&params.index, indexFlag, 0, "Print only the receipt of this transaction")
	_ = cmd.MarkFlagRequired(blockFlag)

	return cmd
}
