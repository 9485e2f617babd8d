package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/blackai-app/backend/internal/mail"
	"github.com/blackai-app/backend/internal/stores/user"
)

var (
	// ErrInvalidOTP is returned when a reset code is wrong or expired
	ErrInvalidOTP = errors.New("invalid or expired reset code")
	// ErrEmailDelivery is returned when the reset code could not be sent
	ErrEmailDelivery = errors.New("email delivery failed")
)

// Service carries the account store, mail sender, and signing secret shared
// by the auth handlers
type Service struct {
	users  user.Store
	mailer mail.Sender
	secret []byte
}

// NewService creates the auth service
func NewService(users user.Store, mailer mail.Sender, secret []byte) *Service {
	return &Service{
		users:  users,
		mailer: mailer,
		secret: secret,
	}
}

// StartPasswordReset stores a fresh reset code on the account and emails it.
// When delivery fails the stored code is cleared again so a stale code can
// never be used.
func (s *Service) StartPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	expires := time.Now().UTC().Add(otpTTL)
	u.ResetOTP = otp
	u.ResetExpires = &expires
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}

	if s.mailer == nil {
		return fmt.Errorf("%w: no mail sender configured", ErrEmailDelivery)
	}

	text := fmt.Sprintf("Your password reset code is: %s. It will expire in 10 minutes.", otp)
	html := fmt.Sprintf("<h1>BlackAI Password Reset</h1><p>Your code is: <strong>%s</strong></p><p>It expires in 10 minutes.</p>", otp)
	if err := s.mailer.Send(u.Email, "Password Reset Code - BlackAI", text, html); err != nil {
		log.Printf("[AUTH]: Failed to send reset email: %v", err)

		u.ResetOTP = ""
		u.ResetExpires = nil
		if clearErr := s.users.UpdateUser(ctx, u); clearErr != nil {
			log.Printf("[AUTH]: Failed to clear reset code: %v", clearErr)
		}

		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	return nil
}

// VerifyResetCode checks that a reset code matches and has not expired
func (s *Service) VerifyResetCode(ctx context.Context, email, otp string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return ErrInvalidOTP
	}

	if !u.OTPValid(otp, time.Now().UTC()) {
		return ErrInvalidOTP
	}

	return nil
}

// ResetPassword sets a new password after validating the reset code. The
// code is single-use: it is cleared together with the password change.
func (s *Service) ResetPassword(ctx context.Context, email, otp, password string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return ErrInvalidOTP
	}

	if !u.OTPValid(otp, time.Now().UTC()) {
		return ErrInvalidOTP
	}

	if err := u.SetPassword(password); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.ResetOTP = ""
	u.ResetExpires = nil

	return s.users.UpdateUser(ctx, u)
}

// generateOTP returns a random 6-digit code
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
