package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/internal/filters"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

const (
	fromFlag    = "from"
	toFlag      = "to"
	addressFlag = "address"
	topicFlag   = "topic"
)

type filterParams struct {
	from      types.BlockNumber
	to        types.BlockNumber
	addresses []string
	topics    []string
}

func addFilterFlags(cmd *cobra.Command, params *filterParams) {
	cmd.Flags().StringSliceVar(&params.addresses, addressFlag, nil, "Match logs emitted by any of these addresses")
	cmd.Flags().StringArrayVar(&params.topics, topicFlag, nil,
		"Topic at the next position: comma-separated alternatives, empty matches any topic")
}

// query builds the filter the same way a JSON request would be parsed.
func (p *filterParams) query(cmd *cobra.Command) (*filters.FilterQuery, error) {
	raw := map[string]any{}
	if cmd.Flags().Changed(fromFlag) {
		raw["fromBlock"] = hexutil.Uint64(p.from)
	}
	if cmd.Flags().Changed(toFlag) {
		raw["toBlock"] = hexutil.Uint64(p.to)
	}
	if len(p.addresses) > 0 {
		raw["address"] = p.addresses
	}
	if len(p.topics) > 0 {
		topics := make([]any, 0, len(p.topics))
		for _, t := range p.topics {
			if t == "" {
				topics = append(topics, nil)
				continue
			}
			topics = append(topics, strings.Split(t, ","))
		}
		raw["topics"] = topics
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	query := &filters.FilterQuery{}
	if err := query.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return query, nil
}

func filterCommand(open opener) *cobra.Command {
	params := &filterParams{}

	cmd := &cobra.Command{
		Use:          "filter",
		Short:        "Print the stored logs matching a filter",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := params.query(cmd)
			if err != nil {
				return err
			}

			return withStore(cmd, open, func(ctx context.Context, s *Store) error {
				manager := filters.NewFiltersManager(ctx, s.DB, s.Receipts, true)
				logs, err := manager.GetLogs(ctx, query)
				if err != nil {
					return err
				}
				if logs == nil {
					logs = []*types.IndexedLog{}
				}
				return common.PrintJSON(cmd, logs)
			})
		},
	}

	cmd.Flags().Var(&params.from, fromFlag, "First block of the range (default: 0)")
	cmd.Flags().Var(&params.to, toFlag, "Last block of the range (default: the last stored block)")
	addFilterFlags(cmd, params)

	return cmd
}
