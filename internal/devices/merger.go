package devices

import (
	"time"
)

// MergeResult describes what a merge changed on a record.
type MergeResult struct {
	NameAdopted         bool
	ManufacturerAdopted bool
	Recounted           bool
}

// Changed reports whether any field of the record was updated.
func (m MergeResult) Changed() bool {
	return m.NameAdopted || m.ManufacturerAdopted || m.Recounted
}

// Merger folds observations into existing records.
type Merger struct {
	recountInterval time.Duration
}

// NewMerger creates a merger that bumps the occurrence count once per recountInterval.
func NewMerger(recountInterval time.Duration) *Merger {
	if recountInterval <= 0 {
		recountInterval = DefaultRecountInterval
	}

	return &Merger{recountInterval: recountInterval}
}

// RecountInterval returns the minimum gap between counted sightings.
func (m *Merger) RecountInterval() time.Duration {
	return m.recountInterval
}

// Merge applies an observation of the same identifier to record.
// Name and manufacturer are write-once; the count and last_seen only move on a recount.
func (m *Merger) Merge(record *Record, obs Observation) MergeResult {
	var res MergeResult

	res.NameAdopted = m.updateName(record, obs)
	res.ManufacturerAdopted = m.updateManufacturer(record, obs)
	res.Recounted = m.updateCount(record, obs)

	return res
}

func (m *Merger) updateName(record *Record, obs Observation) bool {
	if record.Name != Unknown || obs.Name == Unknown || obs.Name == "" {
		return false
	}

	record.Name = obs.Name

	return true
}

func (m *Merger) updateManufacturer(record *Record, obs Observation) bool {
	if record.Manufacturer != Unknown || obs.Manufacturer == Unknown || obs.Manufacturer == "" {
		return false
	}

	record.Manufacturer = obs.Manufacturer

	return true
}

func (m *Merger) updateCount(record *Record, obs Observation) bool {
	if obs.ObservedAt.Sub(record.LastSeen) < m.recountInterval {
		return false
	}

	record.Count++
	record.LastSeen = obs.ObservedAt

	return true
}
