package session

import (
	"errors"
	"fmt"
	"sync"

	"hermes/internal/project"
)

// ErrInvalidTransition is returned when a lifecycle step is taken out of order.
var ErrInvalidTransition = errors.New("invalid session transition")

// State is a point in the project lifecycle.
type State int

const (
	StateEmpty State = iota
	StateModeChosen
	StateTierSelected
	StateDataLoaded
	StateEditable
	StateExportReady
	StateExported
)

var stateNames = map[State]string{
	StateEmpty:        "empty",
	StateModeChosen:   "mode-chosen",
	StateTierSelected: "tier-selected",
	StateDataLoaded:   "data-loaded",
	StateEditable:     "editable",
	StateExportReady:  "export-ready",
	StateExported:     "exported",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	StateEmpty:        {StateModeChosen},
	StateModeChosen:   {StateTierSelected, StateDataLoaded},
	StateTierSelected: {StateTierSelected, StateDataLoaded},
	StateDataLoaded:   {StateEditable},
	StateEditable:     {StateEditable, StateExportReady},
	StateExportReady:  {StateEditable, StateExportReady, StateExported},
	StateExported:     {StateEditable, StateExportReady},
}

// Lifecycle tracks the state of the active project.
type Lifecycle struct {
	mu    sync.Mutex
	state State
	mode  project.Mode
}

// NewLifecycle starts in StateEmpty.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Mode returns the mode chosen for the current project.
func (l *Lifecycle) Mode() project.Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// ChooseMode moves Empty to ModeChosen.
func (l *Lifecycle) ChooseMode(mode project.Mode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.advance(StateModeChosen); err != nil {
		return err
	}
	l.mode = mode
	return nil
}

// Advance moves to next when allowed. Tier selection is only allowed for
// ELAN projects, and scratch projects go straight from ModeChosen to
// DataLoaded.
func (l *Lifecycle) Advance(next State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if next == StateModeChosen {
		return fmt.Errorf("%w: use ChooseMode", ErrInvalidTransition)
	}
	if next == StateTierSelected && l.mode != project.ModeELAN {
		return fmt.Errorf("%w: tier selection requires an elan project", ErrInvalidTransition)
	}
	if next == StateDataLoaded && l.state == StateModeChosen && l.mode == project.ModeELAN {
		return fmt.Errorf("%w: select tiers before loading elan data", ErrInvalidTransition)
	}
	return l.advance(next)
}

// Edit records a row edit. It is valid from DataLoaded onward and always
// lands in Editable.
func (l *Lifecycle) Edit() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateDataLoaded, StateEditable, StateExportReady, StateExported:
		l.state = StateEditable
		return nil
	}
	return fmt.Errorf("%w: cannot edit from %s", ErrInvalidTransition, l.state)
}

// Opened records a project restored from a save. The previous project is
// torn down first, so this is valid from any state.
func (l *Lifecycle) Opened(mode project.Mode) {
	l.mu.Lock()
	l.state = StateDataLoaded
	l.mode = mode
	l.mu.Unlock()
}

// Reset returns to Empty.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	l.state = StateEmpty
	l.mode = project.ModeELAN
	l.mu.Unlock()
}

func (l *Lifecycle) advance(next State) error {
	for _, allowed := range transitions[l.state] {
		if allowed == next {
			l.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.state, next)
}
