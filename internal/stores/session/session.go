package session

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the placeholder title a session carries until title
// generation is invoked
const DefaultTitle = "New Chat"

// Roles a turn may carry
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Session represents one conversation owned by a single user. The transcript
// is append-only: turns are never edited or removed individually, only the
// whole session can be deleted.
type Session struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);index;not null"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Turns     []Turn    `json:"turns,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Turn is one message in a session transcript, immutable once appended
type Turn struct {
	ID        uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `json:"-" gorm:"type:char(36);index;not null"`
	Role      string    `json:"role" gorm:"size:16;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"column:created_at"`
}

// ValidRole reports whether role is one of the transcript roles
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// FirstUserTurn returns the content of the earliest user turn, or the
// fallback when the session has none
func (s *Session) FirstUserTurn(fallback string) string {
	for _, turn := range s.Turns {
		if turn.Role == RoleUser {
			return turn.Content
		}
	}
	return fallback
}

// TurnCount returns the number of turns in the loaded transcript
func (s *Session) TurnCount() int {
	return len(s.Turns)
}
