package errors

import (
	"errors"
	"fmt"
)

// Scan session errors. Both abort the current cycle only; the next poll retries.
var (
	ErrScannerUnavailable     = errors.New("scanner binary not found")
	ErrScannerExecutionFailed = errors.New("scanner execution failed")
)

// Device store errors.
var (
	ErrCorruptStore             = errors.New("device store is corrupt")
	ErrStoreWrite               = errors.New("device store write failed")
	ErrMalformedStoredTimestamp = errors.New("malformed timestamp in device store")
)

// Wiring errors.
var (
	ErrStoreNotSet   = errors.New("device store not set")
	ErrScannerNotSet = errors.New("scanner not set")
	ErrLedgerNotSet  = errors.New("device ledger not set")
)

// ErrScannerUnavailableAt returns ErrScannerUnavailable annotated with the binary path.
func ErrScannerUnavailableAt(path string) error {
	return fmt.Errorf("%w: %s", ErrScannerUnavailable, path)
}

// ErrMalformedStoredTimestampFor returns ErrMalformedStoredTimestamp for a device field.
func ErrMalformedStoredTimestampFor(id, field, value string) error {
	return fmt.Errorf("%w: device %s field %s: %q", ErrMalformedStoredTimestamp, id, field, value)
}
