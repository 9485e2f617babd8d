package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/blackai-app/backend/internal/api/middleware"
	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// Signup handles POST requests to register a new account
func Signup(c *gin.Context) {
	var req sdk.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	u := &user.User{Name: req.Name, Email: req.Email}
	if err := u.SetPassword(req.Password); err != nil {
		log.Printf("[AUTH]: Failed to hash password: %v", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to create account").AsGinResponse())
		return
	}

	if err := GetService().users.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "An account with that email already exists").AsGinResponse())
			return
		}
		log.Printf("[AUTH]: Failed to create user: %v", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to create account").AsGinResponse())
		return
	}

	tokenResponse(c, http.StatusCreated, u)
}

// Login handles POST requests to authenticate an account
func Login(c *gin.Context) {
	var req sdk.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Please provide an email and password").AsGinResponse())
		return
	}

	u, err := GetService().users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !u.MatchPassword(req.Password) {
		c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Invalid credentials").AsGinResponse())
		return
	}

	if u.IsBlocked {
		c.JSON(sdk.NewErrorResponse(http.StatusForbidden, "Your account has been blocked").AsGinResponse())
		return
	}

	tokenResponse(c, http.StatusOK, u)
}

// CheckEmail handles POST requests asking whether an account exists
func CheckEmail(c *gin.Context) {
	var req sdk.CheckEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	_, err := GetService().users.GetUserByEmail(c.Request.Context(), req.Email)
	exists := err == nil

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", sdk.CheckEmailData{Exists: exists}).AsGinResponse())
}

// ForgotPassword handles POST requests to start a password reset. A 6-digit
// code valid for 10 minutes is emailed to the account.
func ForgotPassword(c *gin.Context) {
	var req sdk.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	if err := GetService().StartPasswordReset(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "No account with that email").AsGinResponse())
		case errors.Is(err, ErrEmailDelivery):
			c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Email could not be sent").AsGinResponse())
		default:
			log.Printf("[AUTH]: Failed to start password reset: %v", err)
			c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to start password reset").AsGinResponse())
		}
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "Email sent", nil).AsGinResponse())
}

// VerifyOTP handles POST requests to check a reset code before the client
// shows the new-password form
func VerifyOTP(c *gin.Context) {
	var req sdk.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	if err := GetService().VerifyResetCode(c.Request.Context(), req.Email, req.OTP); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid or expired code").AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "Code verified", nil).AsGinResponse())
}

// ResetPassword handles PUT requests to set a new password using a valid
// reset code
func ResetPassword(c *gin.Context) {
	var req sdk.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	if err := GetService().ResetPassword(c.Request.Context(), req.Email, req.OTP, req.Password); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid or expired code").AsGinResponse())
			return
		}
		log.Printf("[AUTH]: Failed to reset password: %v", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to reset password").AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "Password reset successful", nil).AsGinResponse())
}

// UpdateDetails handles PUT requests to change the caller's name or email
func UpdateDetails(c *gin.Context) {
	var req sdk.UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	u := middleware.CurrentUser(c)
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}

	if err := GetService().users.UpdateUser(c.Request.Context(), u); err != nil {
		log.Printf("[AUTH]: Failed to update user %s: %v", u.ID, err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to update account").AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", toSDKUser(u)).AsGinResponse())
}

// DeleteMe handles DELETE requests to remove the caller's own account
func DeleteMe(c *gin.Context) {
	u := middleware.CurrentUser(c)

	if err := GetService().users.DeleteUser(c.Request.Context(), u.ID); err != nil {
		log.Printf("[AUTH]: Failed to delete user %s: %v", u.ID, err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to delete account").AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", struct{}{}).AsGinResponse())
}

// tokenResponse issues a bearer token and returns it with the public profile
func tokenResponse(c *gin.Context, statusCode int, u *user.User) {
	token, err := middleware.IssueToken(GetService().secret, u.ID)
	if err != nil {
		log.Printf("[AUTH]: Failed to sign token for user %s: %v", u.ID, err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to issue token").AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(statusCode, "", sdk.AuthData{
		Token: token,
		User:  *toSDKUser(u),
	}).AsGinResponse())
}

// toSDKUser converts an account to its public form
func toSDKUser(u *user.User) *sdk.User {
	return &sdk.User{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
	}
}

// otpTTL is how long a reset code stays valid
const otpTTL = 10 * time.Minute
