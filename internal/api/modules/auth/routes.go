package auth

import (
	"log"

	"github.com/blackai-app/backend/internal/mail"
	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/blackai-app/backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

var service *Service

// Init wires the auth module. The mailer may be nil when no SMTP relay is
// configured; password-reset emails then fail gracefully.
func Init(cfg *utils.Config, users user.Store, mailer mail.Sender) {
	secret := cfg.Get("JWT_SECRET")
	if secret == "" {
		log.Fatal("[AUTH]: JWT_SECRET not set in environment")
	}

	service = NewService(users, mailer, []byte(secret))
}

// GetService returns the auth service
func GetService() *Service {
	if service == nil {
		log.Fatal("[AUTH]: Service is not initialized")
	}
	return service
}

// Secret exposes the signing secret for the route guards in internal/api
func Secret() []byte {
	return GetService().secret
}

// RegisterRoutes registers the auth module under the base group
func RegisterRoutes(g *gin.RouterGroup, protect gin.HandlerFunc) {
	group := g.Group("/auth")

	group.POST("/signup", Signup)
	group.POST("/login", Login)
	group.POST("/check-email", CheckEmail)
	group.POST("/forgot-password", ForgotPassword)
	group.POST("/verify-otp", VerifyOTP)
	group.PUT("/reset-password", ResetPassword)

	// Protected self-service routes
	group.PUT("/updatedetails", protect, UpdateDetails)
	group.DELETE("/deleteme", protect, DeleteMe)
}
