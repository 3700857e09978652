package portable

import "strconv"

// State is the lifecycle stage of a Transport.
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}
