package sdk

import "time"

// Roles a turn may carry
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// User is the public view of an account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthData is returned by signup and login
type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Turn is one message in a session transcript
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a conversation owned by one user
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Turns     []Turn    `json:"turns,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

/** Auth requests **/

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CheckEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type CheckEmailData struct {
	Exists bool `json:"exists"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type UpdateDetailsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

/** Admin requests **/

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type BlockUserRequest struct {
	IsBlocked bool `json:"is_blocked"`
}

/** Chat requests **/

type CreateSessionRequest struct {
	Title string `json:"title"`
}

// PostTurnRequest submits one user turn, with optional response customization
type PostTurnRequest struct {
	Role        string   `json:"role"`
	Content     string   `json:"content" binding:"required"`
	Language    string   `json:"language"`
	Tone        string   `json:"tone"`
	Length      string   `json:"length"`
	Temperature *float32 `json:"temperature"`
}
