package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps accounts in process memory, for tests
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

// NewInMemoryStore creates an empty in-memory account store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[uuid.UUID]*User),
	}
}

// CreateUser inserts a new account, assigning an id when absent
func (s *InMemoryStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// GetUser retrieves an account by id
func (s *InMemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

// GetUserByEmail retrieves an account by email
func (s *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}

	return nil, ErrUserNotFound
}

// ListUsers returns all accounts, newest first
func (s *InMemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, *user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	return users, nil
}

// UpdateUser persists changes to an existing account
func (s *InMemoryStore) UpdateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}

	user.UpdatedAt = time.Now().UTC()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// DeleteUser removes an account
func (s *InMemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}

	delete(s.users, id)
	return nil
}
