package execution

import (
	"context"
	"fmt"

	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/telemetry"
	"github.com/NilFoundation/receipts/nil/internal/telemetry/telattr"
	"github.com/NilFoundation/receipts/nil/internal/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

const DefaultReceiptsCacheSize = 1024

// ReceiptsCache is a read-through LRU cache of block receipts.
// Returned slices are shared between callers and must not be modified.
type ReceiptsCache struct {
	db    db.DB
	cache *lru.Cache[types.BlockNumber, []types.SealedReceipt]

	hits     telemetry.Counter
	misses   telemetry.Counter
	failures telemetry.Counter
	size     telemetry.Gauge
	measurer *telemetry.Measurer
	option   metric.MeasurementOption

	logger zerolog.Logger
}

func NewReceiptsCache(database db.DB, size int) (*ReceiptsCache, error) {
	cache, err := lru.New[types.BlockNumber, []types.SealedReceipt](size)
	if err != nil {
		return nil, err
	}

	meter := telemetry.NewMeter("receipts_cache")
	hits, err := meter.Int64Counter("receipts_cache.hits")
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter("receipts_cache.misses")
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("receipts_cache.load_failures")
	if err != nil {
		return nil, err
	}
	sizeGauge, err := meter.Int64Gauge("receipts_cache.size")
	if err != nil {
		return nil, err
	}
	measurer, err := telemetry.NewMeasurer(meter, "receipts_cache.load", telattr.Component("receipts_cache"))
	if err != nil {
		return nil, err
	}

	return &ReceiptsCache{
		db:       database,
		cache:    cache,
		hits:     hits,
		misses:   misses,
		failures: failures,
		size:     sizeGauge,
		measurer: measurer,
		option:   telattr.With(telattr.Component("receipts_cache")),
		logger:   logging.NewLogger("receipts_cache"),
	}, nil
}

// BlockReceipts returns the receipts of the block, loading them from the db on a miss.
func (c *ReceiptsCache) BlockReceipts(ctx context.Context, block types.BlockNumber) ([]types.SealedReceipt, error) {
	if receipts, ok := c.cache.Get(block); ok {
		c.hits.Add(ctx, 1, c.option)
		return receipts, nil
	}
	c.misses.Add(ctx, 1, c.option)

	receipts, err := c.load(ctx, block)
	if err != nil {
		c.failures.Add(ctx, 1, c.option)
		c.logger.Debug().Err(err).Stringer(logging.FieldBlockNumber, block).Msg("Failed to load block receipts")
		return nil, err
	}
	c.add(ctx, block, receipts)
	return receipts, nil
}

func (c *ReceiptsCache) load(ctx context.Context, block types.BlockNumber) ([]types.SealedReceipt, error) {
	tx, err := c.db.CreateRoTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ms := c.measurer.Start()
	receipts, err := db.ReadBlockReceipts(tx, block)
	if err != nil {
		return nil, err
	}
	elapsed := ms.Done(ctx)

	c.logger.Trace().
		Stringer(logging.FieldBlockNumber, block).
		Int(logging.FieldReceiptsNum, len(receipts)).
		Dur(logging.FieldDuration, elapsed).
		Msg("Loaded block receipts")
	return receipts, nil
}

func (c *ReceiptsCache) Receipt(ctx context.Context, block types.BlockNumber, index uint) (types.SealedReceipt, error) {
	receipts, err := c.BlockReceipts(ctx, block)
	if err != nil {
		return types.SealedReceipt{}, err
	}
	if index >= uint(len(receipts)) {
		return types.SealedReceipt{}, fmt.Errorf("%w: block=%s, index=%d, receipts=%d",
			db.ErrIndexOutOfRange, block, index, len(receipts))
	}
	return receipts[index], nil
}

// Store writes a sealed block and caches it once the transaction is committed.
func (c *ReceiptsCache) Store(ctx context.Context, block *SealedBlock) error {
	tx, err := c.db.CreateRwTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := block.Write(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	c.add(ctx, block.Number, block.Receipts)
	return nil
}

func (c *ReceiptsCache) add(ctx context.Context, block types.BlockNumber, receipts []types.SealedReceipt) {
	c.cache.Add(block, receipts)
	c.size.Record(ctx, int64(c.cache.Len()), c.option)
}

func (c *ReceiptsCache) Invalidate(block types.BlockNumber) {
	c.cache.Remove(block)
}

func (c *ReceiptsCache) Len() int {
	return c.cache.Len()
}
