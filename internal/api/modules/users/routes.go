package users

import (
	"log"

	"github.com/blackai-app/backend/internal/api/middleware"
	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/gin-gonic/gin"
)

var service *Service

// Init wires the user administration module
func Init(users user.Store) {
	service = NewService(users)
}

// GetService returns the user administration service
func GetService() *Service {
	if service == nil {
		log.Fatal("[USERS]: Service is not initialized")
	}
	return service
}

// RegisterRoutes registers the user administration module under the base
// group. Every route requires an authenticated administrator.
func RegisterRoutes(g *gin.RouterGroup, protect gin.HandlerFunc) {
	group := g.Group("/users")
	group.Use(protect, middleware.Authorize(user.RoleAdmin))

	group.GET("", GetUsers)            // List all accounts
	group.POST("", CreateUser)         // Register an account
	group.PUT("/:id/block", BlockUser) // Block or unblock an account
	group.DELETE("/:id", DeleteUser)   // Delete an account
}
