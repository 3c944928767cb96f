package db

import "errors"

var (
	ErrKeyNotFound      = errors.New("key not found in db")
	ErrIteratorCreate   = errors.New("failed to create iterator")
	ErrIndexOutOfRange  = errors.New("receipt index out of range")
	ErrCorruptedReceipt = errors.New("corrupted receipts entry")

	ErrNoPath              = errors.New("db path is not set")
	ErrInvalidDiscardRatio = errors.New("gc discard ratio must be in (0, 1)")
	ErrInvalidGcFrequency  = errors.New("gc frequency must be positive")
)
