package tracker

// State is the coordinator's position within a scan cycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateParsing
	StateReconciling
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateParsing:
		return "parsing"
	case StateReconciling:
		return "reconciling"
	case StateReporting:
		return "reporting"
	default:
		return "unknown"
	}
}
