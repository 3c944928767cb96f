package store

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	nilcommon "github.com/NilFoundation/receipts/nil/common"
	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/execution"
	"github.com/NilFoundation/receipts/nil/internal/telemetry"
	"github.com/spf13/cobra"
)

const (
	serviceName = "receipts"

	openAttempts  = 5
	openBaseDelay = 100 * time.Millisecond
	openMaxDelay  = time.Second
)

var logger = logging.NewLogger("storeCommand")

var ErrNoDbPath = errors.New("db_path is missing in config")

// Store is the state shared by the commands working with the database.
type Store struct {
	DB       *db.BadgerDB
	Receipts *execution.ReceiptsCache
	Options  *db.BadgerDBOptions

	release func(ctx context.Context)
}

// Open starts telemetry and opens the database described by the config.
func Open(ctx context.Context, cfg *common.Config) (*Store, error) {
	if cfg.DbPath == "" {
		return nil, ErrNoDbPath
	}

	dbOpts := cfg.DbOptions()
	if err := dbOpts.Validate(); err != nil {
		return nil, err
	}

	telemetryConfig := telemetry.NewDefaultConfig(serviceName)
	telemetryConfig.MetricExportOption = cfg.Metrics
	if err := telemetry.Init(ctx, telemetryConfig); err != nil {
		return nil, fmt.Errorf("failed to init telemetry: %w", err)
	}

	database, err := openDb(ctx, dbOpts)
	if err != nil {
		telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	s, err := newStore(database, dbOpts, cfg.CacheSize)
	if err != nil {
		database.Close()
		telemetry.Shutdown(ctx)
		return nil, err
	}
	s.release = func(ctx context.Context) {
		database.Close()
		telemetry.Shutdown(ctx)
	}
	return s, nil
}

// openDb waits for a short-lived command of another process to release the directory lock.
func openDb(ctx context.Context, opts *db.BadgerDBOptions) (*db.BadgerDB, error) {
	runner := nilcommon.NewRetryRunner(nilcommon.RetryConfig{
		ShouldRetry: nilcommon.RetryIf(nilcommon.LimitRetries(openAttempts), isLockedErr),
		NextDelay:   nilcommon.ExponentialDelay(openBaseDelay, openMaxDelay),
	}, logger)

	var database *db.BadgerDB
	err := runner.Do(ctx, func(context.Context) error {
		var err error
		database, err = db.OpenBadgerDb(opts)
		return err
	})
	return database, err
}

func isLockedErr(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN)
}

func newStore(database *db.BadgerDB, opts *db.BadgerDBOptions, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = execution.DefaultReceiptsCacheSize
	}
	cache, err := execution.NewReceiptsCache(database, cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{DB: database, Receipts: cache, Options: opts}, nil
}

// Close releases what Open acquired.
func (s *Store) Close(ctx context.Context) {
	if s.release != nil {
		s.release(ctx)
	}
}

// opener is replaced in tests to run the commands against an in-memory database.
type opener func(ctx context.Context) (*Store, error)

// GetCommand returns the "store" command group.
func GetCommand(cfg *common.Config) *cobra.Command {
	return getCommand(func(ctx context.Context) (*Store, error) {
		return Open(ctx, cfg)
	})
}

func getCommand(open opener) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Work with the receipts database",
	}

	storeCmd.AddCommand(
		putCommand(open),
		getReceiptsCommand(open),
		filterCommand(open),
		watchCommand(open),
	)
	return storeCmd
}

// withStore runs fn against an opened store and closes it afterwards.
func withStore(cmd *cobra.Command, open opener, fn func(ctx context.Context, s *Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := open(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	return fn(ctx, s)
}
