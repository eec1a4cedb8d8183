package devices

import "time"

// Unknown is the placeholder for a name or manufacturer the scanner did not report.
const Unknown = "Unknown"

// TimestampLayout is the on-disk timestamp format (HH:MM:SS DD-MM-YYYY, local time).
const TimestampLayout = "15:04:05 02-01-2006"

// Defaults.
const (
	DefaultRecountInterval = 24 * time.Hour
)
