package dropout

import "sync"

type State int

const (
	StateActive     State = 0
	StateClosing    State = 1
	StateDraining   State = 2
	StateTerminated State = 3
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// lifecycle tracks which phase a Dropper lineage is in. Transitions only
// ever move forward; there is no resurrection after teardown starts.
type lifecycle struct {
	mu    sync.Mutex
	state State
}

func (l *lifecycle) Get() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

func (l *lifecycle) Is(state State) bool {
	return l.Get() == state
}

func (l *lifecycle) TrySet(state State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state == l.state {
		return errAlreadyInState
	}
	if state < l.state {
		return errStateRegression
	}

	l.state = state
	return nil
}
