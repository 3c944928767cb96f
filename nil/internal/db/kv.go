package db

import (
	"context"
	"time"
)

type RoTx interface {
	Exists(tableName TableName, key []byte) (bool, error)
	Get(tableName TableName, key []byte) ([]byte, error)
	Range(tableName TableName, from []byte, to []byte) (Iter, error)

	// Rollback can't really fail, because it's not clear how to proceed.
	// It's better to just panic in this case and restart.
	Rollback()
}

type RwTx interface {
	RoTx

	Put(tableName TableName, key, value []byte) error
	Delete(tableName TableName, key []byte) error

	Commit() error
}

type Iter interface {
	HasNext() bool
	Next() ([]byte, []byte, error)
	Close()
}

type DB interface {
	CreateRoTx(ctx context.Context) (RoTx, error)
	CreateRwTx(ctx context.Context) (RwTx, error)

	DropAll() error
	LogGC(ctx context.Context, discardRatio float64, gcFrequency time.Duration) error
	Close()
}
