package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/bavix/bletrack/internal/devices"
	customerrors "github.com/bavix/bletrack/internal/errors"
	"github.com/bavix/bletrack/internal/fsutil"
)

const (
	DefaultPath = "/root/handshakes/bluetooth_devices.json"

	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

var (
	errMissingField  = errors.New("missing field")
	errInvalidCount  = errors.New("count must be at least 1")
	errEmptyIdentity = errors.New("empty device identifier")
)

// storedRecord is the on-disk shape of a device entry, keyed by identifier.
// Pointers distinguish absent fields from zero values.
type storedRecord struct {
	Name         *string `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	Count        *int    `json:"count"`
	FirstSeen    *string `json:"first_seen"`
	LastSeen     *string `json:"last_seen"`
}

// File stores the device ledger as a single JSON object on disk.
type File struct {
	path     string
	location *time.Location
}

// NewFile creates a store at path. Timestamps are written in local time.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}

	return &File{path: path, location: time.Local}
}

// WithLocation overrides the time zone used to encode and decode timestamps.
func (f *File) WithLocation(loc *time.Location) *File {
	f.location = loc

	return f
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load reads every device record. A missing file is created empty.
func (f *File) Load(ctx context.Context) (map[string]devices.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.ensureExists(ctx); err != nil {
			return nil, err
		}

		return map[string]devices.Record{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", customerrors.ErrCorruptStore, f.path, err)
	}

	return f.decode(data)
}

// Save atomically replaces the file contents with records.
func (f *File) Save(ctx context.Context, records map[string]devices.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := make(map[string]storedRecord, len(records))
	for id, rec := range records {
		out[id] = f.encodeRecord(rec)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", customerrors.ErrStoreWrite, err)
	}

	if err := fsutil.WriteFileAtomic(f.path, data, defaultFilePerm); err != nil {
		return fmt.Errorf("%w: %w", customerrors.ErrStoreWrite, err)
	}

	return nil
}

func (f *File) ensureExists(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), defaultDirPerm); err != nil {
		return fmt.Errorf("%w: create directory: %w", customerrors.ErrStoreWrite, err)
	}

	if err := fsutil.WriteFileAtomic(f.path, []byte("{}"), defaultFilePerm); err != nil {
		return fmt.Errorf("%w: %w", customerrors.ErrStoreWrite, err)
	}

	zerolog.Ctx(ctx).Info().Str("path", f.path).Msg("created bluetooth devices file")

	return nil
}

func (f *File) decode(data []byte) (map[string]devices.Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", customerrors.ErrCorruptStore, f.path, err)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: %s: top level must be an object", customerrors.ErrCorruptStore, f.path)
	}

	records := make(map[string]devices.Record, len(raw))

	for id, msg := range raw {
		rec, err := f.decodeRecord(id, msg)
		if err != nil {
			return nil, err
		}

		records[id] = rec
	}

	return records, nil
}

//nolint:cyclop
func (f *File) decodeRecord(id string, msg json.RawMessage) (devices.Record, error) {
	if id == "" {
		return devices.Record{}, fmt.Errorf("%w: %w", customerrors.ErrCorruptStore, errEmptyIdentity)
	}

	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()

	var s storedRecord
	if err := dec.Decode(&s); err != nil {
		return devices.Record{}, fmt.Errorf("%w: device %s: %w", customerrors.ErrCorruptStore, id, err)
	}

	switch {
	case s.Name == nil:
		return devices.Record{}, fmt.Errorf("%w: device %s: %w: name", customerrors.ErrCorruptStore, id, errMissingField)
	case s.Manufacturer == nil:
		return devices.Record{}, fmt.Errorf("%w: device %s: %w: manufacturer", customerrors.ErrCorruptStore, id, errMissingField)
	case s.Count == nil:
		return devices.Record{}, fmt.Errorf("%w: device %s: %w: count", customerrors.ErrCorruptStore, id, errMissingField)
	case s.FirstSeen == nil:
		return devices.Record{}, fmt.Errorf("%w: device %s: %w: first_seen", customerrors.ErrCorruptStore, id, errMissingField)
	case s.LastSeen == nil:
		return devices.Record{}, fmt.Errorf("%w: device %s: %w: last_seen", customerrors.ErrCorruptStore, id, errMissingField)
	case *s.Count < 1:
		return devices.Record{}, fmt.Errorf("%w: device %s: %w", customerrors.ErrCorruptStore, id, errInvalidCount)
	}

	firstSeen, err := time.ParseInLocation(devices.TimestampLayout, *s.FirstSeen, f.location)
	if err != nil {
		return devices.Record{}, customerrors.ErrMalformedStoredTimestampFor(id, "first_seen", *s.FirstSeen)
	}

	lastSeen, err := time.ParseInLocation(devices.TimestampLayout, *s.LastSeen, f.location)
	if err != nil {
		return devices.Record{}, customerrors.ErrMalformedStoredTimestampFor(id, "last_seen", *s.LastSeen)
	}

	return devices.Record{
		ID:           id,
		Name:         orUnknown(*s.Name),
		Manufacturer: orUnknown(*s.Manufacturer),
		Count:        *s.Count,
		FirstSeen:    firstSeen,
		LastSeen:     lastSeen,
	}, nil
}

func (f *File) encodeRecord(rec devices.Record) storedRecord {
	name := orUnknown(rec.Name)
	manufacturer := orUnknown(rec.Manufacturer)
	count := max(rec.Count, 1)
	firstSeen := rec.FirstSeen.In(f.location).Format(devices.TimestampLayout)
	lastSeen := rec.LastSeen.In(f.location).Format(devices.TimestampLayout)

	return storedRecord{
		Name:         &name,
		Manufacturer: &manufacturer,
		Count:        &count,
		FirstSeen:    &firstSeen,
		LastSeen:     &lastSeen,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return devices.Unknown
	}

	return s
}
