package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/NilFoundation/receipts/nil/common/assert"
	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

type BadgerDB struct {
	db     *badger.DB
	logger zerolog.Logger
}

// BadgerDBOptions locate the database and tune its value log garbage collection.
type BadgerDBOptions struct {
	Path         string        `yaml:"path"`
	DiscardRatio float64       `yaml:"gcDiscardRatio"`
	GcFrequency  time.Duration `yaml:"gcFrequency"`
}

func NewDefaultBadgerDBOptions() *BadgerDBOptions {
	return &BadgerDBOptions{
		DiscardRatio: 0.5,
		GcFrequency:  5 * time.Minute,
	}
}

func (o *BadgerDBOptions) Validate() error {
	if o.Path == "" {
		return ErrNoPath
	}
	if o.DiscardRatio <= 0 || o.DiscardRatio >= 1 {
		return fmt.Errorf("%w: %v", ErrInvalidDiscardRatio, o.DiscardRatio)
	}
	if o.GcFrequency <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGcFrequency, o.GcFrequency)
	}
	return nil
}

type BadgerRoTx struct {
	tx         *badger.Txn
	terminated atomic.Bool
}

type BadgerRwTx struct {
	*BadgerRoTx
}

type BadgerIter struct {
	iter        *badger.Iterator
	tablePrefix []byte
	toPrefix    []byte
}

// interfaces
var (
	_ RoTx = new(BadgerRoTx)
	_ RwTx = new(BadgerRwTx)
	_ DB   = new(BadgerDB)
	_ Iter = new(BadgerIter)
)

func NewBadgerDb(pathToDb string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(pathToDb).WithLogger(nil)
	return newBadgerDb(&opts)
}

func NewBadgerDbInMemory() (*BadgerDB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return newBadgerDb(&opts)
}

// OpenBadgerDb validates the options and opens the database at opts.Path.
func OpenBadgerDb(opts *BadgerDBOptions) (*BadgerDB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return NewBadgerDb(opts.Path)
}

func newBadgerDb(opts *badger.Options) (*BadgerDB, error) {
	badgerInstance, err := badger.Open(*opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{
		db:     badgerInstance,
		logger: logging.NewLogger("db").With().Str(logging.FieldDbPath, opts.Dir).Logger(),
	}, nil
}

func (db *BadgerDB) Close() {
	if err := db.db.Close(); err != nil {
		db.logger.Error().Err(err).Msg("Failed to close db")
	}
}

func (db *BadgerDB) DropAll() error {
	return db.db.DropAll()
}

func captureStacktrace() []byte {
	stack := make([]byte, 1024)
	_ = runtime.Stack(stack, false)
	return stack
}

func runTxLeakChecker(tx *BadgerRoTx, stack []byte, timeout time.Duration) {
	time.Sleep(timeout)
	if !tx.terminated.Load() {
		panic(fmt.Sprintf("Transaction wasn't terminated:\n%s", stack))
	}
}

func (db *BadgerDB) CreateRoTx(ctx context.Context) (RoTx, error) {
	txn := db.db.NewTransaction(false)
	tx := &BadgerRoTx{tx: txn}
	if assert.Enable {
		stack := captureStacktrace()
		go runTxLeakChecker(tx, stack, 1*time.Second)
	}
	return tx, nil
}

func (db *BadgerDB) CreateRwTx(ctx context.Context) (RwTx, error) {
	txn := db.db.NewTransaction(true)
	tx := &BadgerRwTx{&BadgerRoTx{tx: txn}}
	if assert.Enable {
		stack := captureStacktrace()
		go runTxLeakChecker(tx.BadgerRoTx, stack, 10*time.Second)
	}
	return tx, nil
}

func (db *BadgerDB) LogGC(ctx context.Context, discardRatio float64, gcFrequency time.Duration) error {
	db.logger.Info().Msg("Starting badger log garbage collection...")
	ticker := time.NewTicker(gcFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			db.logger.Debug().Msg("Execute badger LogGC")
			var err error
			for ; err == nil; err = db.db.RunValueLogGC(discardRatio) {
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				db.logger.Error().Err(err).Msg("Error during badger LogGC")
				return err
			}
		case <-ctx.Done():
			db.logger.Info().Msg("Stopping badger log garbage collection...")
			return nil
		}
	}
}

func (tx *BadgerRwTx) Commit() error {
	tx.terminated.Store(true)
	return tx.tx.Commit()
}

func (tx *BadgerRoTx) Rollback() {
	tx.terminated.Store(true)
	tx.tx.Discard()
}

func (tx *BadgerRwTx) Put(tableName TableName, key, value []byte) error {
	return tx.tx.Set(MakeKey(tableName, key), value)
}

func (tx *BadgerRoTx) Get(tableName TableName, key []byte) ([]byte, error) {
	item, err := tx.tx.Get(MakeKey(tableName, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx *BadgerRoTx) Exists(tableName TableName, key []byte) (bool, error) {
	_, err := tx.tx.Get(MakeKey(tableName, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (tx *BadgerRwTx) Delete(tableName TableName, key []byte) error {
	return tx.tx.Delete(MakeKey(tableName, key))
}

func (tx *BadgerRoTx) Range(tableName TableName, from []byte, to []byte) (Iter, error) {
	var iter BadgerIter
	iter.iter = tx.tx.NewIterator(badger.DefaultIteratorOptions)
	if iter.iter == nil {
		return nil, ErrIteratorCreate
	}

	prefix := MakeKey(tableName, from)
	iter.iter.Seek(prefix)
	iter.tablePrefix = []byte(tableName + ":")
	if to != nil {
		iter.toPrefix = MakeKey(tableName, to)
	}

	return &iter, nil
}

func (it *BadgerIter) HasNext() bool {
	if !it.iter.ValidForPrefix(it.tablePrefix) {
		return false
	}

	if it.toPrefix == nil {
		return true
	}

	if k := it.iter.Item().Key(); bytes.Compare(k, it.toPrefix) > 0 {
		return false
	}
	return true
}

func (it *BadgerIter) Next() ([]byte, []byte, error) {
	// The item is reused by the iterator once it advances.
	item := it.iter.Item()
	key := item.KeyCopy(nil)
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}
	it.iter.Next()
	return key[len(it.tablePrefix):], value, nil
}

func (it *BadgerIter) Close() {
	it.iter.Close()
}
