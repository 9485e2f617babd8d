package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps sessions in process memory. Used by tests and one-off
// runs that have no database available.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewInMemoryStore creates an empty in-memory transcript store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// CreateSession creates a new session with the given title
func (s *InMemoryStore) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*Session, error) {
	if title == "" {
		title = DefaultTitle
	}

	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return copySession(session), nil
}

// GetSession retrieves a session with its transcript in append order
func (s *InMemoryStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return copySession(session), nil
}

// ListSessions returns a user's sessions ordered by last update, newest first
func (s *InMemoryStore) ListSessions(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []Session
	for _, session := range s.sessions {
		if session.UserID != userID {
			continue
		}
		copied := *copySession(session)
		copied.Turns = nil
		sessions = append(sessions, copied)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// AppendTurn appends one turn and refreshes the session's updated_at
func (s *InMemoryStore) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	turn := Turn{
		ID:        uint(len(session.Turns) + 1),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	session.Turns = append(session.Turns, turn)
	session.UpdatedAt = turn.CreatedAt

	copied := turn
	return &copied, nil
}

// SetTitle updates a session's title
func (s *InMemoryStore) SetTitle(ctx context.Context, sessionID uuid.UUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	session.Title = title
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteSession deletes a session and its transcript
func (s *InMemoryStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	delete(s.sessions, sessionID)
	return nil
}

// copySession returns a deep copy so callers cannot mutate stored state
func copySession(session *Session) *Session {
	copied := *session
	copied.Turns = make([]Turn, len(session.Turns))
	copy(copied.Turns, session.Turns)
	return &copied
}
