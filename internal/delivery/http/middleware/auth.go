package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/delivery/http/handler"
	"github.com/grapeapp/grape-backend/internal/usecase/auth"
)

type AuthMiddleware struct {
	tokens *auth.TokenService
}

func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth validates the bearer token and stores the caller's id and claims.
// A missing token is 401, an invalid or expired one 403.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if header == "" {
			handler.RespondError(c, auth.ErrMissingToken)
			return
		}
		if !found {
			handler.RespondError(c, auth.ErrInvalidToken)
			return
		}

		claims, err := m.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			handler.RespondError(c, err)
			return
		}

		c.Set(handler.ContextUserID, claims.UserID)
		c.Set("claims", claims)
		c.Next()
	}
}
