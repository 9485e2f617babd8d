package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when a session id resolves to nothing
var ErrSessionNotFound = errors.New("session not found")

// Store interface defines methods for transcript persistence. Turns are only
// ever written through AppendTurn; nothing mutates a turn after append.
type Store interface {
	CreateSession(ctx context.Context, userID uuid.UUID, title string) (*Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]Session, error)
	AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string) (*Turn, error)
	SetTitle(ctx context.Context, sessionID uuid.UUID, title string) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// MySqlStore handles transcript persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a transcript store on an open GORM connection
func NewMySqlStore(db *gorm.DB) (*MySqlStore, error) {
	if err := db.AutoMigrate(&Session{}, &Turn{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session tables: %w", err)
	}

	return &MySqlStore{db: db}, nil
}

// CreateSession creates a new session with the given title
func (s *MySqlStore) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*Session, error) {
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

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session with its transcript in append order
func (s *MySqlStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var session Session
	result := s.db.WithContext(ctx).
		Preload("Turns", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&session, "id = ?", sessionID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", result.Error)
	}

	return &session, nil
}

// ListSessions returns a user's sessions ordered by last update, newest
// first. Transcripts are not loaded.
func (s *MySqlStore) ListSessions(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	var sessions []Session
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", result.Error)
	}

	return sessions, nil
}

// AppendTurn appends one turn to the transcript and refreshes the session's
// updated_at in the same transaction
func (s *MySqlStore) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string) (*Turn, error) {
	turn := &Turn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Session{}).
			Where("id = ?", sessionID).
			Update("updated_at", turn.CreatedAt)
		if result.Error != nil {
			return fmt.Errorf("failed to touch session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}

		if err := tx.Create(turn).Error; err != nil {
			return fmt.Errorf("failed to append turn: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return turn, nil
}

// SetTitle updates a session's title. This is the one session attribute that
// mutates outside the append-only transcript.
func (s *MySqlStore) SetTitle(ctx context.Context, sessionID uuid.UUID, title string) error {
	result := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()})

	if result.Error != nil {
		return fmt.Errorf("failed to set title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteSession deletes a session and its transcript
func (s *MySqlStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&Turn{}).Error; err != nil {
			return fmt.Errorf("failed to delete session turns: %w", err)
		}

		result := tx.Where("id = ?", sessionID).Delete(&Session{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}

		return nil
	})
}
