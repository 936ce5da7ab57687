package handlers

import "sync"

// Startup steps reported on the loading page
const (
	StepStorage  = "Conectando almacenamiento"
	StepSessions = "Restaurando sesiones"
	StepReady    = "Servidor listo"
)

// StartupStep is one stage of initialization
type StartupStep struct {
	Name      string
	Completed bool
}

// StartupStatus is a snapshot for rendering
type StartupStatus struct {
	Current  string
	Progress int
	Steps    []StartupStep
}

// Startup tracks initialization progress. A nil *Startup reports nothing.
type Startup struct {
	mu      sync.RWMutex
	current string
	steps   []StartupStep
}

// NewStartup creates a tracker with the given steps, all pending
func NewStartup(steps ...string) *Startup {
	s := &Startup{current: "Iniciando..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrent updates the step shown as in progress
func (s *Startup) SetCurrent(step string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// Complete marks a step as done
func (s *Startup) Complete(step string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == step {
			s.steps[i].Completed = true
			break
		}
	}
}

// Status returns a copy of the current progress
func (s *Startup) Status() StartupStatus {
	if s == nil {
		return StartupStatus{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := StartupStatus{Current: s.current, Steps: append([]StartupStep(nil), s.steps...)}
	if len(s.steps) == 0 {
		return out
	}
	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	out.Progress = (completed * 100) / len(s.steps)
	return out
}
