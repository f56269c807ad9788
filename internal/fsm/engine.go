package fsm

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"contentgpt/internal/domain"
)

// Result is the artifact of the session's most recent generation, kept so
// the edit flow can rework it
type Result struct {
	Kind    domain.ContentKind
	Prompt  string
	Content string
}

// Session is one user's conversation state. Everything lives in memory and
// is lost on restart; flows are short and cheap to restart.
type Session struct {
	UserID     int64
	Flow       Flow
	State      State
	Fields     map[string]string
	LastResult *Result
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Outcome tells the caller what to do after Start or Input
type Outcome struct {
	Prompt  string
	Choices []string
	Invalid bool
	Done    bool
	Flow    Flow
	Fields  map[string]string
}

// Engine holds all active sessions behind a single lock
type Engine struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// DefaultTTL is how long a session survives without input
const DefaultTTL = 30 * time.Minute

// NewEngine creates a session engine with the given inactivity TTL
func NewEngine(ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start begins a flow for the user. An active flow is silently abandoned:
// its collected fields are dropped, the last result is kept so edit chains
// survive starting over.
func (e *Engine) Start(userID int64, flow Flow) (Outcome, error) {
	start, ok := flowStart[flow]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown flow %q", flow)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	s := e.sessions[userID]
	if s == nil {
		s = &Session{UserID: userID}
		e.sessions[userID] = s
	}
	s.Flow = flow
	s.State = start
	s.Fields = make(map[string]string)
	s.StartedAt = now
	s.UpdatedAt = now

	step := steps[start]
	return Outcome{Prompt: step.Prompt, Choices: step.Choices, Flow: flow}, nil
}

// Input feeds one user answer into the active flow. The second return is
// false when the user has no active flow and the text should be handled
// elsewhere. Invalid input re-prompts and changes nothing.
func (e *Engine) Input(userID int64, input string) (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[userID]
	if s == nil || s.State == StateIdle {
		return Outcome{}, false
	}

	step, ok := steps[s.State]
	if !ok {
		// Unreachable with a well-formed table; recover by resetting.
		s.State = StateIdle
		s.Fields = nil
		return Outcome{}, false
	}

	if err := validate(step, input); err != nil {
		s.UpdatedAt = e.now()
		return Outcome{Prompt: step.Prompt, Choices: step.Choices, Invalid: true, Flow: s.Flow}, true
	}

	s.Fields[step.Field] = strings.TrimSpace(input)
	s.State = step.Next
	s.UpdatedAt = e.now()

	if s.State == StateIdle {
		fields := make(map[string]string, len(s.Fields))
		for k, v := range s.Fields {
			fields[k] = v
		}
		flow := s.Flow
		s.Fields = nil
		return Outcome{Done: true, Flow: flow, Fields: fields}, true
	}

	next := steps[s.State]
	return Outcome{Prompt: next.Prompt, Choices: next.Choices, Flow: s.Flow}, true
}

// Cancel aborts the active flow from any state. The last result survives.
func (e *Engine) Cancel(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[userID]
	if s == nil || s.State == StateIdle {
		return false
	}
	s.State = StateIdle
	s.Fields = nil
	s.UpdatedAt = e.now()
	return true
}

// Active reports whether the user is inside a flow
func (e *Engine) Active(userID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.sessions[userID]
	return s != nil && s.State != StateIdle
}

// SetLastResult records the most recent generation for the edit flow
func (e *Engine) SetLastResult(userID int64, r *Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[userID]
	if s == nil {
		s = &Session{UserID: userID, State: StateIdle, StartedAt: e.now()}
		e.sessions[userID] = s
	}
	s.LastResult = r
	s.UpdatedAt = e.now()
}

// LastResult returns the most recent generation, or nil
func (e *Engine) LastResult(userID int64) *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.sessions[userID]
	if s == nil {
		return nil
	}
	return s.LastResult
}

// SweepExpired drops sessions idle longer than the TTL and returns how many
// were removed. Called from a janitor ticker.
func (e *Engine) SweepExpired() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-e.ttl)
	removed := 0
	for id, s := range e.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(e.sessions, id)
			removed++
		}
	}
	return removed
}
