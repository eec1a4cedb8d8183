package devices_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bavix/bletrack/internal/devices"
)

func TestMerger_Merge(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.Local)
	interval := time.Hour

	tests := []struct {
		name     string
		record   devices.Record
		obs      devices.Observation
		expected devices.MergeResult
		after    devices.Record
	}{
		{
			name:   "nothing new within interval",
			record: devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 1, FirstSeen: base, LastSeen: base},
			obs:    devices.Observation{Name: "Buds", Manufacturer: "Acme", ObservedAt: base.Add(time.Minute)},
			after:  devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 1, FirstSeen: base, LastSeen: base},
		},
		{
			name:     "name filled in",
			record:   devices.Record{Name: devices.Unknown, Manufacturer: "Acme", Count: 1, FirstSeen: base, LastSeen: base},
			obs:      devices.Observation{Name: "Buds", Manufacturer: devices.Unknown, ObservedAt: base.Add(time.Minute)},
			expected: devices.MergeResult{NameAdopted: true},
			after:    devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 1, FirstSeen: base, LastSeen: base},
		},
		{
			name:     "manufacturer filled in",
			record:   devices.Record{Name: "Buds", Manufacturer: devices.Unknown, Count: 1, FirstSeen: base, LastSeen: base},
			obs:      devices.Observation{Name: "Other", Manufacturer: "Acme", ObservedAt: base},
			expected: devices.MergeResult{ManufacturerAdopted: true},
			after:    devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 1, FirstSeen: base, LastSeen: base},
		},
		{
			name:     "recount at exactly the interval",
			record:   devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 3, FirstSeen: base, LastSeen: base},
			obs:      devices.Observation{Name: "Buds", Manufacturer: "Acme", ObservedAt: base.Add(interval)},
			expected: devices.MergeResult{Recounted: true},
			after:    devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 4, FirstSeen: base, LastSeen: base.Add(interval)},
		},
		{
			name:     "all three at once",
			record:   devices.Record{Name: devices.Unknown, Manufacturer: devices.Unknown, Count: 1, FirstSeen: base, LastSeen: base},
			obs:      devices.Observation{Name: "Buds", Manufacturer: "Acme", ObservedAt: base.Add(2 * interval)},
			expected: devices.MergeResult{NameAdopted: true, ManufacturerAdopted: true, Recounted: true},
			after:    devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 2, FirstSeen: base, LastSeen: base.Add(2 * interval)},
		},
		{
			name:   "older observation never rewinds last seen",
			record: devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 2, FirstSeen: base, LastSeen: base.Add(interval)},
			obs:    devices.Observation{Name: "Buds", Manufacturer: "Acme", ObservedAt: base},
			after:  devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 2, FirstSeen: base, LastSeen: base.Add(interval)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			merger := devices.NewMerger(interval)
			record := tt.record

			res := merger.Merge(&record, tt.obs)

			assert.Equal(t, tt.expected, res)
			assert.Equal(t, tt.expected.Changed(), res.Changed())
			assert.Equal(t, tt.after, record)
		})
	}
}

func TestMerger_KnownFieldsAreWriteOnce(t *testing.T) {
	t.Parallel()

	merger := devices.NewMerger(time.Hour)
	base := time.Now()
	record := devices.Record{Name: "Buds", Manufacturer: "Acme", Count: 1, FirstSeen: base, LastSeen: base}

	for i, obs := range []devices.Observation{
		{Name: "Renamed", Manufacturer: "Other Corp", ObservedAt: base.Add(time.Second)},
		{Name: devices.Unknown, Manufacturer: devices.Unknown, ObservedAt: base.Add(2 * time.Hour)},
		{Name: "", Manufacturer: "", ObservedAt: base.Add(4 * time.Hour)},
	} {
		merger.Merge(&record, obs)

		assert.Equal(t, "Buds", record.Name, "observation %d", i)
		assert.Equal(t, "Acme", record.Manufacturer, "observation %d", i)
	}

	assert.Equal(t, 3, record.Count)
	assert.Equal(t, base, record.FirstSeen)
}

func TestNewMerger_DefaultInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, devices.DefaultRecountInterval, devices.NewMerger(0).RecountInterval())
	assert.Equal(t, time.Minute, devices.NewMerger(time.Minute).RecountInterval())
}
