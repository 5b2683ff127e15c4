package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID   = "userID"
	ContextEmail    = "email"
	ContextRoleType = "roleType"
)

// TokenValidator validates access tokens. *auth.JWTService implements it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// tokenFromRequest reads the Authorization header, falling back to the
// ?token= query parameter used by websocket clients and Swagger UI
func tokenFromRequest(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = c.Query("token")
	}
	return auth.ExtractBearerToken(strings.Trim(header, "\"'"))
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	detail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewFailureResponse(detail))
}

func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) bool {
	claims, err := m.jwtService.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
		} else {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
		}
		return false
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextRoleType, claims.Role)
	return true
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}
		if !m.authenticate(c, tokenString) {
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the user when a token is present and lets anonymous requests through.
// A present but invalid token is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			c.Next()
			return
		}
		if !m.authenticate(c, tokenString) {
			return
		}
		c.Next()
	}
}

// RoleRequired middleware to check if user has one of the required roles
func (m *AuthMiddleware) RoleRequired(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		detail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation")
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewFailureResponse(detail))
	}
}

// CurrentActor returns the authenticated caller stored by JWTAuth
func CurrentActor(c *gin.Context) (authz.Actor, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return authz.Actor{}, false
	}
	id, ok := userID.(int64)
	if !ok {
		return authz.Actor{}, false
	}
	role, _ := c.Get(ContextRoleType)
	roleType, _ := role.(models.RoleType)
	return authz.Actor{UserID: id, Role: roleType}, true
}
