package handlers

import (
	"net/http"
	"sync"
	"time"
)

// Startup step names, in the order main runs them
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
	StepRealtime   = "Starting realtime broker"
	StepReady      = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu        sync.RWMutex
	ready     bool
	current   string
	progress  int
	steps     []StartupStep
	startedAt time.Time
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type startupResponse struct {
	Status   string        `json:"status"`
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Uptime   string        `json:"uptime"`
	Steps    []StartupStep `json:"steps"`
}

// NewStartupStatus creates a tracker with the given steps pending
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing...", startedAt: time.Now()}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// DefaultStartupStatus lists the steps the server binary runs through
func DefaultStartupStatus() *StartupStatus {
	return NewStartupStatus(StepDatabase, StepMigrations, StepServices, StepRealtime, StepReady)
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = (completed * 100) / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		s.steps[i].Completed = true
	}
	s.ready = true
	s.current = StepReady
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *StartupStatus) snapshot() startupResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := startupResponse{
		Status:   "starting",
		Ready:    s.ready,
		Current:  s.current,
		Progress: s.progress,
		Uptime:   time.Since(s.startedAt).Round(time.Second).String(),
		Steps:    append([]StartupStep(nil), s.steps...),
	}
	if s.ready {
		resp.Status = "ok"
	}
	return resp
}

// Health reports startup progress. It answers 503 until the server is ready.
func (s *StartupStatus) Health(w http.ResponseWriter, r *http.Request) {
	resp := s.snapshot()
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// Gate answers 503 for every request except the health check until the server is ready
func (s *StartupStatus) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.IsReady() && r.URL.Path != "/api/health" {
			w.Header().Set("Retry-After", "2")
			respondWithError(w, http.StatusServiceUnavailable, "Server is starting up", "", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
