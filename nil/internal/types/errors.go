package types

import "errors"

var (
	ErrInvalidStatusLength = errors.New("invalid receipt status length")
	ErrGasOverflow         = errors.New("cumulative gas exceeds 128 bits")
	ErrConflictingOutcome  = errors.New("receipt has both status and root")
	ErrMissingOutcome      = errors.New("receipt has neither status nor root")
	ErrMissingField        = errors.New("missing required field")
	ErrNotFieldsEncoder    = errors.New("receipt does not implement the field encoder")
	ErrNotFieldsDecoder    = errors.New("receipt does not implement the field decoder")
)
