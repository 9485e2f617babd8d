package users

import (
	"context"
	"fmt"

	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/google/uuid"
)

// Service wraps the account store with the operations administrators use
type Service struct {
	users user.Store
}

// NewService creates the user administration service
func NewService(users user.Store) *Service {
	return &Service{users: users}
}

// ListUsers returns every account, newest first
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.ListUsers(ctx)
}

// CreateUser registers an account with the given role, defaulting to a
// regular user
func (s *Service) CreateUser(ctx context.Context, name, email, password, role string) (*user.User, error) {
	if role == "" {
		role = user.RoleUser
	}

	u := &user.User{
		Name:  name,
		Email: email,
		Role:  role,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// SetBlocked flips whether an account may sign in
func (s *Service) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	u.IsBlocked = blocked
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// DeleteUser removes an account. Chat sessions attached to the account are
// removed with it by the database's cascade rule.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.DeleteUser(ctx, id)
}
