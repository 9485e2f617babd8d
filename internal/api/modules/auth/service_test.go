package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordMailer captures outgoing mail; it can simulate a failing relay
type recordMailer struct {
	sent []string // recipient addresses
	text []string
	err  error
}

func (m *recordMailer) Send(to, subject, text, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	m.text = append(m.text, text)
	return nil
}

func seedAccount(t *testing.T, users user.Store, email string) *user.User {
	t.Helper()

	u := &user.User{Name: "Test", Email: email}
	require.NoError(t, u.SetPassword("original-password"))
	require.NoError(t, users.CreateUser(context.Background(), u))
	return u
}

func TestStartPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a code and emails it", func(t *testing.T) {
		users := user.NewInMemoryStore()
		mailer := &recordMailer{}
		svc := NewService(users, mailer, []byte("secret"))
		seedAccount(t, users, "a@example.com")

		require.NoError(t, svc.StartPasswordReset(ctx, "a@example.com"))
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "a@example.com", mailer.sent[0])

		stored, err := users.GetUserByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Len(t, stored.ResetOTP, 6)
		assert.Contains(t, mailer.text[0], stored.ResetOTP)
		require.NotNil(t, stored.ResetExpires)
		assert.True(t, stored.ResetExpires.After(time.Now()))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := NewService(user.NewInMemoryStore(), &recordMailer{}, []byte("secret"))
		assert.ErrorIs(t, svc.StartPasswordReset(ctx, "ghost@example.com"), user.ErrUserNotFound)
	})

	t.Run("delivery failure clears the stored code", func(t *testing.T) {
		users := user.NewInMemoryStore()
		svc := NewService(users, &recordMailer{err: errors.New("relay down")}, []byte("secret"))
		seedAccount(t, users, "b@example.com")

		assert.ErrorIs(t, svc.StartPasswordReset(ctx, "b@example.com"), ErrEmailDelivery)

		stored, err := users.GetUserByEmail(ctx, "b@example.com")
		require.NoError(t, err)
		assert.Empty(t, stored.ResetOTP)
		assert.Nil(t, stored.ResetExpires)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *user.InMemoryStore, string) {
		users := user.NewInMemoryStore()
		svc := NewService(users, &recordMailer{}, []byte("secret"))
		seedAccount(t, users, "c@example.com")
		require.NoError(t, svc.StartPasswordReset(ctx, "c@example.com"))

		stored, err := users.GetUserByEmail(ctx, "c@example.com")
		require.NoError(t, err)
		return svc, users, stored.ResetOTP
	}

	t.Run("valid code sets the new password once", func(t *testing.T) {
		svc, users, otp := setup(t)

		require.NoError(t, svc.VerifyResetCode(ctx, "c@example.com", otp))
		require.NoError(t, svc.ResetPassword(ctx, "c@example.com", otp, "new-password"))

		stored, err := users.GetUserByEmail(ctx, "c@example.com")
		require.NoError(t, err)
		assert.True(t, stored.MatchPassword("new-password"))
		assert.False(t, stored.MatchPassword("original-password"))

		// The code is single-use
		assert.ErrorIs(t, svc.ResetPassword(ctx, "c@example.com", otp, "again"), ErrInvalidOTP)
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, _, _ := setup(t)
		assert.ErrorIs(t, svc.ResetPassword(ctx, "c@example.com", "000000", "new"), ErrInvalidOTP)
		assert.ErrorIs(t, svc.VerifyResetCode(ctx, "c@example.com", "000000"), ErrInvalidOTP)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, otp := setup(t)
		assert.ErrorIs(t, svc.ResetPassword(ctx, "ghost@example.com", otp, "new"), ErrInvalidOTP)
	})
}
