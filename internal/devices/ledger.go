package devices

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	customerrors "github.com/bavix/bletrack/internal/errors"
)

// Summary is the ledger headcount used for "N known devices" reports.
type Summary struct {
	Total   int `json:"total"`
	Unnamed int `json:"unnamed"`
}

// Known returns the number of devices with both name and manufacturer resolved.
func (s Summary) Known() int {
	return s.Total - s.Unnamed
}

// Ledger is the mapping of every device ever seen.
// It has a single owner and is not safe for concurrent use.
type Ledger struct {
	store   Store
	merger  *Merger
	records map[string]*Record
	dirty   bool
}

// NewLedger creates an empty ledger backed by store.
func NewLedger(store Store, recountInterval time.Duration) *Ledger {
	return &Ledger{
		store:   store,
		merger:  NewMerger(recountInterval),
		records: make(map[string]*Record),
	}
}

// Load replaces the in-memory state with the store contents.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return customerrors.ErrStoreNotSet
	}

	stored, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	records := make(map[string]*Record, len(stored))

	for id, rec := range stored {
		rec.ID = id
		records[id] = &rec
	}

	l.records = records
	l.dirty = false

	zerolog.Ctx(ctx).Debug().Int("devices", len(records)).Msg("device ledger loaded")

	return nil
}

// Reconcile folds an observation into the ledger. It reports whether any record
// changed and, when a device gained its first known name, that name.
func (l *Ledger) Reconcile(obs Observation) (bool, string) {
	record, exists := l.records[obs.ID]
	if !exists {
		rec := NewRecord(obs)
		l.records[obs.ID] = &rec
		l.dirty = true

		if rec.IsNamed() {
			return true, rec.Name
		}

		return true, ""
	}

	res := l.merger.Merge(record, obs)
	if !res.Changed() {
		return false, ""
	}

	l.dirty = true

	if res.NameAdopted {
		return true, record.Name
	}

	return true, ""
}

// Summary counts all records and those still missing a name or manufacturer.
func (l *Ledger) Summary() Summary {
	s := Summary{Total: len(l.records)}

	for _, rec := range l.records {
		if !rec.IsIdentified() {
			s.Unnamed++
		}
	}

	return s
}

// Dirty reports whether there are changes not yet written to the store.
func (l *Ledger) Dirty() bool {
	return l.dirty
}

// PersistIfDirty saves the ledger when a reconcile changed it since the last save.
// A failed save keeps the ledger dirty so the next call retries.
func (l *Ledger) PersistIfDirty(ctx context.Context) (bool, error) {
	if !l.dirty {
		return false, nil
	}

	if l.store == nil {
		return false, customerrors.ErrStoreNotSet
	}

	if err := l.store.Save(ctx, l.snapshot()); err != nil {
		return false, fmt.Errorf("persist device ledger: %w", err)
	}

	l.dirty = false

	zerolog.Ctx(ctx).Info().Int("devices", len(l.records)).Msg("bluetooth devices updated and saved")

	return true, nil
}

// Get returns a copy of the record for id.
func (l *Ledger) Get(id string) (Record, bool) {
	rec, ok := l.records[id]
	if !ok {
		return Record{}, false
	}

	return *rec, true
}

// Len returns the number of known identifiers.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns copies of all records, most recently seen first.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].ID < out[j].ID
		}

		return out[i].LastSeen.After(out[j].LastSeen)
	})

	return out
}

func (l *Ledger) snapshot() map[string]Record {
	out := make(map[string]Record, len(l.records))
	for id, rec := range l.records {
		out[id] = *rec
	}

	return out
}
