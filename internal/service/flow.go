package service

import (
	"errors"
	"sync"
	"time"
)

// ErrSubmissionInProgress is returned when a form is submitted twice
var ErrSubmissionInProgress = errors.New("submission already in progress")

// Flow names
const (
	FlowLogin          = "login"
	FlowForgotPassword = "forgot-password"
	FlowResetPassword  = "reset-password"
)

// FlowStatus is the client-observed state of one auth flow
type FlowStatus int

const (
	FlowIdle FlowStatus = iota
	FlowSubmitting
	FlowSuccess
	FlowFailed
)

func (s FlowStatus) String() string {
	switch s {
	case FlowSubmitting:
		return "submitting"
	case FlowSuccess:
		return "success"
	case FlowFailed:
		return "failed"
	default:
		return "idle"
	}
}

// FlowState is what a form renders: whether it is busy and what went wrong
type FlowState struct {
	Status    FlowStatus
	Error     string
	updatedAt time.Time
}

// IsLoading reports whether a submission is in flight
func (s FlowState) IsLoading() bool {
	return s.Status == FlowSubmitting
}

type flowKey struct {
	sid  string
	name string
}

// Flows tracks Idle -> Submitting -> {Success, Failed} per session id and form.
// The boolean guard is the only mutual exclusion between submissions.
type Flows struct {
	mu     sync.Mutex
	states map[flowKey]FlowState
	now    func() time.Time
}

// NewFlows creates an empty registry
func NewFlows() *Flows {
	return &Flows{states: make(map[flowKey]FlowState), now: time.Now}
}

// Begin moves the flow to Submitting and clears any previous error
func (f *Flows) Begin(sid, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := flowKey{sid, name}
	if f.states[k].Status == FlowSubmitting {
		return ErrSubmissionInProgress
	}
	f.states[k] = FlowState{Status: FlowSubmitting, updatedAt: f.now()}
	return nil
}

// Succeed moves the flow to Success
func (f *Flows) Succeed(sid, name string) {
	f.set(sid, name, FlowState{Status: FlowSuccess})
}

// Fail moves the flow to Failed with a user-facing message
func (f *Flows) Fail(sid, name, message string) {
	f.set(sid, name, FlowState{Status: FlowFailed, Error: message})
}

// ClearError drops a displayed error without starting a new submission
func (f *Flows) ClearError(sid, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := flowKey{sid, name}
	st, ok := f.states[k]
	if !ok || st.Status == FlowSubmitting {
		return
	}
	delete(f.states, k)
}

// State returns the current state, Idle when unknown
func (f *Flows) State(sid, name string) FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[flowKey{sid, name}]
}

// Forget drops every flow of sid
func (f *Flows) Forget(sid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.states {
		if k.sid == sid {
			delete(f.states, k)
		}
	}
}

// Prune drops settled flows not touched for maxAge
func (f *Flows) Prune(maxAge time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := f.now().Add(-maxAge)
	removed := 0
	for k, st := range f.states {
		if st.Status != FlowSubmitting && st.updatedAt.Before(cutoff) {
			delete(f.states, k)
			removed++
		}
	}
	return removed
}

func (f *Flows) set(sid, name string, st FlowState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st.updatedAt = f.now()
	f.states[flowKey{sid, name}] = st
}
