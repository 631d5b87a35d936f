package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/pkg/response"
)

// RequireAdmin is the authorization gate for admin-only routes. It must run
// after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		if !id.Role.CanAdminister() {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}
