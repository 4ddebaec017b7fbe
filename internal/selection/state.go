// internal/selection/state.go
package selection

import "errors"

// State is the tri-state inclusion status of a discovered entry.
type State int

const (
	Unchecked State = iota
	PartiallyChecked
	Checked
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case PartiallyChecked:
		return "partial"
	case Checked:
		return "checked"
	default:
		return "unknown"
	}
}

// MarshalText lets states appear by name in YAML and log output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is one discovered filesystem entry.
type Entry struct {
	Path  string
	IsDir bool
}

var (
	// ErrUnknownEntry indicates a path that has not been discovered yet.
	ErrUnknownEntry = errors.New("entry not discovered")
	// ErrOutsideRoot indicates a path that does not live under the projector root.
	ErrOutsideRoot = errors.New("path is outside root")
	// ErrNotChild indicates a discovered entry whose parent is not the announced parent.
	ErrNotChild = errors.New("entry is not a direct child of parent")
	// ErrRootEntry indicates an operation that cannot apply to the root itself.
	ErrRootEntry = errors.New("operation not allowed on root")
)
