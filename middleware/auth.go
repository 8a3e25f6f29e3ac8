// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"energy-server/auth"
	"energy-server/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// Auth requires a valid bearer token. A missing token is 401; a token that
// fails validation is 403. Either way the handler chain stops here.
func Auth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Authenticate(c, tokens, BearerToken(c.GetHeader("Authorization")))
		if !ok {
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// Authenticate validates raw and, on failure, aborts c with the same 401/403
// responses as Auth.
func Authenticate(c *gin.Context, tokens *auth.TokenIssuer, raw string) (*auth.Claims, bool) {
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication token is required."})
		return nil, false
	}

	claims, err := tokens.Validate(raw)
	if err != nil {
		msg := "Invalid token."
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "Token expired."
		}
		logger.FromGin(c).Warn("Token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": msg})
		return nil, false
	}
	return claims, true
}

// BearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserID returns the authenticated caller set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func Email(c *gin.Context) string {
	return c.GetString(emailKey)
}
