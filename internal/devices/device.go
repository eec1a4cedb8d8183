package devices

import (
	"time"
)

// Observation is one parsed sighting of a device during a scan cycle.
type Observation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Label renders the observation as "name (manufacturer)".
func (o Observation) Label() string {
	return o.Name + " (" + o.Manufacturer + ")"
}

// Record is the persistent history of one device identifier.
type Record struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	Count        int       `json:"count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// NewRecord creates the first record for an observation.
func NewRecord(obs Observation) Record {
	return Record{
		ID:           obs.ID,
		Name:         orUnknown(obs.Name),
		Manufacturer: orUnknown(obs.Manufacturer),
		Count:        1,
		FirstSeen:    obs.ObservedAt,
		LastSeen:     obs.ObservedAt,
	}
}

// IsNamed reports whether the display name is known.
func (r *Record) IsNamed() bool {
	return r.Name != Unknown
}

// IsIdentified reports whether both name and manufacturer are known.
func (r *Record) IsIdentified() bool {
	return r.Name != Unknown && r.Manufacturer != Unknown
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}

	return s
}
