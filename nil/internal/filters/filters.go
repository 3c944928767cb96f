package filters

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/execution"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/rs/zerolog"
)

const (
	logsChannelSize = 100
	defaultPollRate = 200 * time.Millisecond
	// Upper bound on the number of blocks one GetLogs call scans.
	MaxBlockRange = 10_000
)

type Filter struct {
	query   *FilterQuery
	matcher *Matcher
	output  chan *types.IndexedLog
}

func (f *Filter) LogsChannel() <-chan *types.IndexedLog {
	return f.output
}

type SubscriptionID string

type FiltersManager struct {
	ctx      context.Context
	db       db.DB
	receipts *execution.ReceiptsCache
	filters  map[SubscriptionID]*Filter
	mutex    sync.RWMutex

	// next block to be delivered to subscribers
	nextBlock types.BlockNumber
	started   bool

	logger zerolog.Logger
}

func NewFiltersManager(ctx context.Context, database db.DB, receipts *execution.ReceiptsCache, noPolling bool) *FiltersManager {
	m := &FiltersManager{
		ctx:      ctx,
		db:       database,
		receipts: receipts,
		filters:  make(map[SubscriptionID]*Filter),
		logger:   logging.NewLogger("filters"),
	}

	if !noPolling {
		go m.PollBlocks(defaultPollRate)
	}

	return m
}

func (m *FiltersManager) NewFilter(query *FilterQuery) (SubscriptionID, *Filter) {
	id := generateSubscriptionID()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	filter := &Filter{
		query:   query,
		matcher: NewMatcher(query),
		output:  make(chan *types.IndexedLog, logsChannelSize),
	}
	m.filters[id] = filter

	return id, filter
}

func (m *FiltersManager) RemoveFilter(id SubscriptionID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	filter, exist := m.filters[id]
	if exist {
		close(filter.output)
		delete(m.filters, id)
	}
	return exist
}

// PollBlocks delivers the logs of newly stored blocks to the matching filters.
// Blocks stored before the first poll are not delivered.
func (m *FiltersManager) PollBlocks(delay time.Duration) {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}

		if err := m.poll(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to poll blocks")
		}
	}
}

func (m *FiltersManager) poll() error {
	head, err := m.readHead()
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.started {
		m.started = true
		m.nextBlock = head + 1
		return nil
	}

	for ; m.nextBlock <= head; m.nextBlock++ {
		receipts, err := m.receipts.BlockReceipts(m.ctx, m.nextBlock)
		if errors.Is(err, db.ErrKeyNotFound) {
			// gaps are allowed
			continue
		}
		if err != nil {
			return err
		}
		m.process(m.nextBlock, receipts)
	}
	return nil
}

func (m *FiltersManager) readHead() (types.BlockNumber, error) {
	tx, err := m.db.CreateRoTx(m.ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback()

	return db.ReadLastBlockNumber(tx)
}

// process must be called with the mutex held.
func (m *FiltersManager) process(block types.BlockNumber, receipts []types.SealedReceipt) {
	for id, filter := range m.filters {
		for _, log := range MatchBlock(filter.matcher, block, receipts) {
			select {
			case filter.output <- log:
			default:
				// Don't block on a full channel. Probably subscriber just disconnected.
				m.logger.Debug().
					Str(logging.FieldSubscription, string(id)).
					Stringer(logging.FieldBlockNumber, block).
					Msg("Dropped log for a slow subscriber")
			}
		}
	}
}

// GetLogs returns the stored logs matching the query. Blocks whose aggregated bloom
// excludes the query are skipped without reading their receipts.
func (m *FiltersManager) GetLogs(ctx context.Context, query *FilterQuery) ([]*types.IndexedLog, error) {
	tx, err := m.db.CreateRoTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	from := types.BlockNumber(0)
	if query.FromBlock != nil {
		from = *query.FromBlock
	}
	var to types.BlockNumber
	if query.ToBlock != nil {
		to = *query.ToBlock
	} else {
		to, err = db.ReadLastBlockNumber(tx)
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
	if from > to {
		return nil, fmt.Errorf("%w: from %s > to %s", ErrInvalidRange, from, to)
	}
	if to-from >= MaxBlockRange {
		return nil, fmt.Errorf("%w: more than %d blocks", ErrInvalidRange, MaxBlockRange)
	}

	matcher := NewMatcher(query)
	var candidates []types.BlockNumber
	if err := db.ForEachBlockBloom(tx, from, to, func(block types.BlockNumber, bloom types.Bloom) error {
		if matcher.MatchBloom(bloom) {
			candidates = append(candidates, block)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var res []*types.IndexedLog
	for _, block := range candidates {
		receipts, err := m.receipts.BlockReceipts(ctx, block)
		if err != nil {
			return nil, err
		}
		res = append(res, MatchBlock(matcher, block, receipts)...)
	}

	m.logger.Debug().
		Stringer(logging.FieldFromBlock, from).
		Stringer(logging.FieldToBlock, to).
		Int("candidates", len(candidates)).
		Int(logging.FieldLogsNum, len(res)).
		Msg("Filtered logs")
	return res, nil
}

var globalSubscriptionId uint64

func generateSubscriptionID() SubscriptionID {
	id := [16]byte{}
	sb := new(strings.Builder)
	hex := hex.NewEncoder(sb)
	binary.LittleEndian.PutUint64(id[:], atomic.AddUint64(&globalSubscriptionId, 1))
	// Try 4 times to generate an id
	for range 4 {
		_, err := rand.Read(id[8:])
		if err == nil {
			break
		}
	}
	// If the computer has no functioning secure rand source, it will just use the incrementing number
	if _, err := hex.Write(id[:]); err != nil {
		return ""
	}
	return SubscriptionID(sb.String())
}
