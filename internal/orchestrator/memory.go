package orchestrator

import (
	"sync"
	"time"
)

// Turn is one message in a session transcript.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Memory is an in-process per-session transcript store. Each session keeps
// at most maxTurns messages; older ones are evicted so an abandoned session
// cannot grow without bound.
type Memory struct {
	mu       sync.Mutex
	maxTurns int
	sessions map[string][]Turn
}

// NewMemory creates a Memory holding up to maxTurns messages per session.
func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Memory{
		maxTurns: maxTurns,
		sessions: make(map[string][]Turn),
	}
}

// Append records one message for the session, evicting the oldest when the
// cap is reached.
func (m *Memory) Append(sessionID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.sessions[sessionID], Turn{Role: role, Content: content, At: time.Now()})
	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.sessions[sessionID] = turns
}

// History returns a copy of the session transcript in chronological order.
func (m *Memory) History(sessionID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// LastUserQuery returns the most recent user message, or "" for a fresh
// session.
func (m *Memory) LastUserQuery(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return turns[i].Content
		}
	}
	return ""
}

// Clear drops the session transcript.
func (m *Memory) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
