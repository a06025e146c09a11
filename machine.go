package slab

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// minDeltaTime is the smallest delta, in seconds, reported to State.Update.
const minDeltaTime = 0.000001

// State is one state of a Machine managing data of type D.
type State[D any] interface {
	// Enter is called when the machine switches to this state. prev is the
	// state being left, or nil.
	Enter(m *Machine[D], prev State[D])
	// Update is called by Machine.Update with the seconds since the last update.
	Update(m *Machine[D], dt float64)
	// Exit is called when the machine switches away from this state. next is
	// the state being entered, or nil.
	Exit(m *Machine[D], next State[D])
}

// Machine runs data of type D through a sequence of states. States switch
// themselves (or each other) by calling Switch from inside their callbacks.
//
// A Machine is not safe for concurrent use.
type Machine[D any] struct {
	data       D
	state      State[D]
	lastUpdate time.Time
	deltaTime  float64
	now        func() time.Time
	log        *zap.Logger
}

// NewMachine creates a machine holding data whose current state is initial.
// The initial state is installed as is; its Enter is not called. Use Switch
// to start from a state that needs to be entered.
func NewMachine[D any](data D, initial State[D], opts ...Option) *Machine[D] {
	o := buildOptions(opts)
	m := &Machine[D]{
		data:  data,
		state: initial,
		now:   time.Now,
		log:   o.log,
	}
	m.lastUpdate = m.now()
	return m
}

// Data returns a pointer to the managed data.
func (m *Machine[D]) Data() *D {
	return &m.data
}

// SetData replaces the managed data.
func (m *Machine[D]) SetData(data D) {
	m.data = data
}

// State returns the current state, or nil when the machine is stopped.
func (m *Machine[D]) State() State[D] {
	return m.state
}

// Valid reports whether the machine has a current state.
func (m *Machine[D]) Valid() bool {
	return m.state != nil
}

// LastUpdate returns the time of the last Update, or of construction.
func (m *Machine[D]) LastUpdate() time.Time {
	return m.lastUpdate
}

// DeltaTime returns the seconds between the last two updates.
func (m *Machine[D]) DeltaTime() float64 {
	return m.deltaTime
}

// Switch leaves the current state and enters next. The current state's Exit
// sees next; next's Enter sees the state that was left. A nil next stops the
// machine. Switch returns the state that is current once it finishes, which
// differs from next if next switched again from Enter.
func (m *Machine[D]) Switch(next State[D]) State[D] {
	prev := m.state
	if prev != nil {
		prev.Exit(m, next)
	}
	m.state = next
	m.log.Debug("slab state switch",
		zap.String("previous", stateName(prev)),
		zap.String("next", stateName(next)))
	if next != nil {
		next.Enter(m, prev)
	}
	return m.state
}

// Update advances the clock and updates the current state. It returns the
// state that is current afterwards.
func (m *Machine[D]) Update() State[D] {
	now := m.now()
	m.deltaTime = max(now.Sub(m.lastUpdate).Seconds(), minDeltaTime)
	m.lastUpdate = now
	if m.state != nil {
		m.state.Update(m, m.deltaTime)
	}
	return m.state
}

// Run updates the machine until it has no current state.
func (m *Machine[D]) Run() {
	for m.Update() != nil {
	}
}

// StateIs reports whether the machine's current state has type S.
func StateIs[S State[D], D any](m *Machine[D]) bool {
	_, ok := m.state.(S)
	return ok
}

// StateAs returns the machine's current state as type S.
func StateAs[S State[D], D any](m *Machine[D]) (S, bool) {
	s, ok := m.state.(S)
	return s, ok
}

func stateName(s any) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", s)
}
