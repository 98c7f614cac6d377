package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/auth"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"

	ReviewTokenHeader = "X-Review-Token"
)

// TokenValidator checks a session token. AuthUseCase implements it.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id and role in the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got, _ := c.Get(ContextRole); got != role {
			abort(c, http.StatusForbidden, "only "+string(role)+"s can access this resource")
			return
		}
		c.Next()
	}
}

// RequireServiceToken guards internal routes with a shared secret. An empty
// token disables the routes.
func RequireServiceToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			abort(c, http.StatusNotFound, "not found")
			return
		}
		got := c.GetHeader(ReviewTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abort(c, http.StatusUnauthorized, "invalid review token")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
