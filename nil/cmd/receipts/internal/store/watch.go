package store

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/filters"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const pollFlag = "poll"

type watchParams struct {
	filterParams
	poll time.Duration
}

func watchCommand(open opener) *cobra.Command {
	params := &watchParams{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print matching logs of newly stored blocks until interrupted",
		Long: "Print matching logs of blocks stored after the command started, one JSON object per line. " +
			"Blocks are picked up by polling the last stored block number.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := params.query(cmd)
			if err != nil {
				return err
			}

			return withStore(cmd, open, func(ctx context.Context, s *Store) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return watch(ctx, cmd, s, query, params.poll)
			})
		},
	}

	addFilterFlags(cmd, &params.filterParams)
	cmd.Flags().DurationVar(&params.poll, pollFlag, time.Second, "Polling interval")

	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, s *Store, query *filters.FilterQuery, poll time.Duration) error {
	g, gCtx := errgroup.WithContext(ctx)

	manager := filters.NewFiltersManager(gCtx, s.DB, s.Receipts, true)
	id, filter := manager.NewFilter(query)
	defer manager.RemoveFilter(id)

	g.Go(func() error {
		manager.PollBlocks(poll)
		return nil
	})
	g.Go(func() error {
		return s.DB.LogGC(gCtx, s.Options.DiscardRatio, s.Options.GcFrequency)
	})
	g.Go(func() error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		for {
			select {
			case <-gCtx.Done():
				return nil
			case log, ok := <-filter.LogsChannel():
				if !ok {
					return nil
				}
				if err := enc.Encode(log); err != nil {
					return err
				}
			}
		}
	})

	logger.Info().Str(logging.FieldSubscription, string(id)).Msg("Watching for new logs...")
	return g.Wait()
}
