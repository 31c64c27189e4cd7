// Package worker implements the reusable cooperative worker state
// machine (spec.md §4.6) and its two scheduling substrates (§4.7):
// ThreadWorker (dedicated goroutine) and TimerWorker (rearmed timer on
// a shared pool). Both substrates share one StateMachine so the
// lifecycle, transition table, and cancellation semantics are defined
// exactly once.
package worker

// State is one of the five cooperative lifecycle states from spec.md
// §4.6. The zero value is Created.
type State int32

const (
	Created State = iota
	Waiting
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Waiting:
		return "Waiting"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Request is one of the four state-change requests a caller can submit.
type Request int32

const (
	RequestNone Request = iota
	RequestStart
	RequestPause
	RequestResume
	RequestStop
)

func (r Request) String() string {
	switch r {
	case RequestNone:
		return "None"
	case RequestStart:
		return "Start"
	case RequestPause:
		return "Pause"
	case RequestResume:
		return "Resume"
	case RequestStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// transition implements the table in spec.md §4.6. ok is false for a
// "—" cell; callers distinguish "Created received a non-Start/Stop/
// Resume request" (a hard InvalidState error) from every other "—"
// cell (a harmless no-op that resolves to the current state).
func transition(current State, req Request) (next State, ok bool) {
	switch current {
	case Created:
		switch req {
		case RequestStart, RequestResume:
			return Waiting, true
		case RequestStop:
			return Stopped, true
		default:
			return current, false
		}
	case Waiting:
		switch req {
		case RequestPause:
			return Paused, true
		case RequestResume:
			return Waiting, true
		case RequestStop:
			return Stopped, true
		default:
			return current, false
		}
	case Running:
		switch req {
		case RequestPause:
			return Paused, true
		case RequestResume:
			return Waiting, true
		case RequestStop:
			return Stopped, true
		default:
			return current, false
		}
	case Paused:
		switch req {
		case RequestResume:
			return Waiting, true
		case RequestStop:
			return Stopped, true
		default:
			return current, false
		}
	case Stopped:
		return Stopped, false
	default:
		return current, false
	}
}
