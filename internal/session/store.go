// Package session owns per-session conversational history: bounded append,
// rendering into a context block, and per-session locking.
package session

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// DefaultMaxPairs is the number of user+assistant pairs retained per session.
const DefaultMaxPairs = 5

// historyHeader prefixes the rendered history block.
const historyHeader = "Previous conversation:"

// Store holds all sessions for the process lifetime. Sessions are created
// lazily on first append and never expire (see DESIGN.md). Access to one
// session is serialized by its own lock; different sessions never contend.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*history
	maxPairs int
	logger   *zap.Logger
}

type history struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// NewStore creates a session store retaining at most maxPairs user+assistant
// pairs per session. maxPairs <= 0 selects DefaultMaxPairs.
func NewStore(maxPairs int, logger *zap.Logger) *Store {
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*history),
		maxPairs: maxPairs,
		logger:   logger,
	}
}

// Append records a turn, dropping the oldest turns first when the sliding
// window would exceed 2*maxPairs.
func (s *Store) Append(sessionID string, role domain.Role, content string) {
	h := s.session(sessionID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, domain.Turn{Role: role, Content: content})
	if limit := 2 * s.maxPairs; len(h.turns) > limit {
		dropped := len(h.turns) - limit
		h.turns = append(h.turns[:0:0], h.turns[dropped:]...)
		s.logger.Debug("session history trimmed",
			zap.String("session_id", sessionID),
			zap.Int("dropped", dropped),
		)
	}
}

// Format renders the retained turns as "ROLE: content" lines under a fixed
// header, in chronological order. Returns "" for a session with no history.
func (s *Store) Format(sessionID string) string {
	h := s.peek(sessionID)
	if h == nil {
		return ""
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.turns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(historyHeader)
	for _, t := range h.turns {
		b.WriteByte('\n')
		b.WriteString(strings.ToUpper(string(t.Role)))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// History returns a copy of the retained turns, oldest first.
func (s *Store) History(sessionID string) []domain.Turn {
	h := s.peek(sessionID)
	if h == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len reports how many turns the session currently retains.
func (s *Store) Len(sessionID string) int {
	h := s.peek(sessionID)
	if h == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// session returns the history for sessionID, creating it if absent.
func (s *Store) session(sessionID string) *history {
	s.mu.RLock()
	h, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.sessions[sessionID]; ok {
		return h
	}
	h = &history{}
	s.sessions[sessionID] = h
	return h
}

// peek returns the history for sessionID without creating it.
func (s *Store) peek(sessionID string) *history {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}
