package users

import (
	"errors"
	"log"
	"net/http"

	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUsers returns every account, newest first
func GetUsers(c *gin.Context) {
	service := GetService()

	users, err := service.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(errorResponse("list users", err).AsGinResponse())
		return
	}

	data := make([]sdk.User, 0, len(users))
	for i := range users {
		data = append(data, toSDKUser(&users[i]))
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "Users fetched successfully", data).WithCount(len(data)).AsGinResponse())
}

// CreateUser registers a new account on behalf of an administrator
func CreateUser(c *gin.Context) {
	service := GetService()

	var req sdk.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Name, email, and password are required").AsGinResponse())
		return
	}

	created, err := service.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "An account with this email already exists").AsGinResponse())
			return
		}
		c.JSON(errorResponse("create user", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusCreated, "User created successfully", toSDKUser(created)).AsGinResponse())
}

// BlockUser toggles whether an account may sign in
func BlockUser(c *gin.Context) {
	service := GetService()

	id, ok := userParam(c)
	if !ok {
		return
	}

	var req sdk.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid request body").AsGinResponse())
		return
	}

	updated, err := service.SetBlocked(c.Request.Context(), id, req.IsBlocked)
	if err != nil {
		c.JSON(errorResponse("block user", err).AsGinResponse())
		return
	}

	message := "User unblocked successfully"
	if updated.IsBlocked {
		message = "User blocked successfully"
	}
	c.JSON(sdk.NewSuccessResponse(http.StatusOK, message, toSDKUser(updated)).AsGinResponse())
}

// DeleteUser removes an account and everything attached to it
func DeleteUser(c *gin.Context) {
	service := GetService()

	id, ok := userParam(c)
	if !ok {
		return
	}

	if err := service.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(errorResponse("delete user", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "User deleted successfully", nil).AsGinResponse())
}

// userParam parses the :id path parameter, replying 400 when malformed
func userParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid user id").AsGinResponse())
		return uuid.Nil, false
	}
	return id, true
}

// errorResponse maps service errors onto the payloads sent to clients
func errorResponse(op string, err error) *sdk.Payload {
	if errors.Is(err, user.ErrUserNotFound) {
		return sdk.NewErrorResponse(http.StatusNotFound, "User not found")
	}

	log.Printf("[USERS]: Failed to %s: %v", op, err)
	return sdk.NewErrorResponse(http.StatusInternalServerError, "Something went wrong")
}

// toSDKUser converts a stored account into its wire form
func toSDKUser(u *user.User) sdk.User {
	return sdk.User{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
	}
}
