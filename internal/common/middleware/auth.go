package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"twitch-giveaway-backend/internal/common/errors"
)

const identityKey = "identity"

// Identity is the authenticated caller, extracted from the session token
// issued by the OAuth layer.
type Identity struct {
	UserID      string
	DisplayName string
	IsAdmin     bool
}

// SessionClaims is the JWT payload: sub carries the Twitch user id.
type SessionClaims struct {
	DisplayName string `json:"display_name"`
	Admin       bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Authenticate parses the bearer token (or session cookie) when present and
// stores the caller identity on the context. Requests without a token pass
// through anonymously; RequireAuth and RequireAdmin enforce access.
func Authenticate(jwtSecret string, adminIDs []string) gin.HandlerFunc {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			admins[trimmed] = true
		}
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims := &SessionClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.NewUnauthorizedError("unexpected signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			RespondError(c, errors.NewUnauthorizedError("invalid session token"))
			c.Abort()
			return
		}

		c.Set(identityKey, &Identity{
			UserID:      claims.Subject,
			DisplayName: claims.DisplayName,
			IsAdmin:     claims.Admin || admins[claims.Subject],
		})
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetIdentity(c) == nil {
			RespondError(c, errors.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin callers.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			RespondError(c, errors.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}
		if !identity.IsAdmin {
			RespondError(c, errors.NewForbiddenError("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the authenticated caller, or nil for anonymous requests.
func GetIdentity(c *gin.Context) *Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*Identity)
	if !ok {
		return nil
	}
	return identity
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("session"); err == nil {
		return cookie
	}
	return ""
}
