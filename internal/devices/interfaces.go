package devices

import (
	"context"
)

// Store persists the ledger as a mapping from identifier to record.
type Store interface {
	// Load returns every stored record keyed by identifier.
	Load(ctx context.Context) (map[string]Record, error)

	// Save replaces the stored mapping.
	Save(ctx context.Context, records map[string]Record) error
}
