package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/domain"
	"pdfmark/internal/pkg/response"
)

const identityKey = "identity"

// Verifier turns a bearer token into an identity without I/O.
type Verifier interface {
	Verify(token string) (domain.Identity, error)
}

// AuthResult is the outcome of the authentication gate: either an
// identity, or a rejection code and message.
type AuthResult struct {
	Identity domain.Identity
	Code     string
	Message  string
}

func (r AuthResult) Authenticated() bool { return r.Code == "" }

func rejected(code, message string) AuthResult {
	return AuthResult{Code: code, Message: message}
}

// Authenticate is the gate in front of every non-public route.
func Authenticate(v Verifier, header string) AuthResult {
	if header == "" {
		return rejected("AUTH_HEADER_MISSING", "Missing Authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return rejected("INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return rejected("INVALID_AUTH_FORMAT", "Empty token")
	}
	id, err := v.Verify(token)
	if err != nil {
		return rejected("INVALID_TOKEN", "Invalid or expired token")
	}
	return AuthResult{Identity: id}
}

// JWTAuth runs Authenticate and stores the identity on the context.
func JWTAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := Authenticate(v, c.GetHeader("Authorization"))
		if !res.Authenticated() {
			response.Abort(c, http.StatusUnauthorized, res.Code, res.Message)
			return
		}
		setIdentity(c, res.Identity)
		c.Next()
	}
}

// QueryTokenAuth is JWTAuth for clients that cannot set headers, such as
// browser websockets. The token comes from the "token" query parameter.
func QueryTokenAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if tok := c.Query("token"); tok != "" {
				header = "Bearer " + tok
			}
		}
		res := Authenticate(v, header)
		if !res.Authenticated() {
			response.Abort(c, http.StatusUnauthorized, res.Code, res.Message)
			return
		}
		setIdentity(c, res.Identity)
		c.Next()
	}
}

func setIdentity(c *gin.Context, id domain.Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", id.UserID)
	c.Set("role", string(id.Role))
}

// IdentityFrom returns the identity stored by JWTAuth.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
