package plugin

// State represents the lifecycle state of a plugin.
type State int

// Plugin states.
const (
	// StateUnloaded - Plugin is not loaded.
	StateUnloaded State = iota

	// StateActive - Plugin ran and its activate() returned.
	StateActive

	// StateError - activate() failed; the plugin stays loaded.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
