package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
)

const identityKey = "identity"

// JWTAuth requires a valid bearer token and stores the caller's identity.
func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			abort(c, apperr.New(apperr.CodeUnauthenticated, "authorization header required"))
			return
		}
		id, err := authService.ValidateToken(token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is present. A malformed or
// invalid token is still rejected.
func OptionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		JWTAuth(authService)(c)
	}
}

// RequireController rejects callers that are not controllers. Use after JWTAuth.
func RequireController() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || !id.IsController() {
			abort(c, apperr.New(apperr.CodeForbidden, "controller role required"))
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by JWTAuth.
func IdentityFrom(c *gin.Context) (*services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*services.Identity)
	return id, ok
}

func bearer(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func abort(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := code.HTTPStatus()
	if status == http.StatusInternalServerError {
		code = apperr.CodeInternal
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: err.Error()}})
}
