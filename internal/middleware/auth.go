package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/pkg/auth"
	"github.com/medilink/pharmacare-api/pkg/httputil"
)

const ContextPrincipal = "principal"

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the caller principal
// in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		role := model.Role(claims.Role)
		if !role.Valid() {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(ContextPrincipal, model.Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   role,
		})
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allow list.
// Finer-grained checks (profile existence, ownership) stay in the
// services.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortUnauthorized(c, "not authenticated")
			return
		}
		if _, ok := allowed[principal.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
				Success: false,
				Error:   &httputil.Error{Code: http.StatusForbidden, Message: "insufficient role"},
			})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller set by Authenticate.
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, exists := c.Get(ContextPrincipal)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := v.(model.Principal)
	return principal, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Code: http.StatusUnauthorized, Message: message},
	})
}
