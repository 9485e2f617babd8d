// Package middleware holds the route guards shared by the API modules.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is how long an issued bearer token stays valid
const TokenTTL = 30 * 24 * time.Hour

// contextUserKey is where Protect stores the authenticated account
const contextUserKey = "currentUser"

// IssueToken signs a bearer token carrying the account id
func IssueToken(secret []byte, userID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a bearer token and returns the account id it carries
func ParseToken(secret []byte, tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	return uuid.Parse(claims.Subject)
}

// Protect requires a valid bearer token, loads the account behind it, and
// rejects blocked accounts. The account is stored on the request context for
// handlers downstream.
func Protect(users user.Store, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Not authorized to access this route").AsGinResponse())
			return
		}

		userID, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Not authorized to access this route").AsGinResponse())
			return
		}

		u, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Not authorized to access this route").AsGinResponse())
			return
		}

		if u.IsBlocked {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusForbidden, "Your account has been blocked").AsGinResponse())
			return
		}

		c.Set(contextUserKey, u)
		c.Next()
	}
}

// Authorize requires the authenticated account to hold one of the given roles
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Not authorized to access this route").AsGinResponse())
			return
		}

		for _, role := range roles {
			if u.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusForbidden, "Insufficient permissions").AsGinResponse())
	}
}

// CurrentUser returns the account Protect stored on the request context, or
// nil when the route is unprotected
func CurrentUser(c *gin.Context) *user.User {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}

	u, ok := value.(*user.User)
	if !ok {
		return nil
	}
	return u
}
