package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims SessionClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func sessionToken(t *testing.T, userID, displayName string, admin bool) string {
	t.Helper()
	return signToken(t, SessionClaims{
		DisplayName: displayName,
		Admin:       admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)
}

func authRouter(adminIDs []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Authenticate(testSecret, adminIDs))

	router.GET("/public", func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "admin": identity.IsAdmin})
	})
	router.GET("/private", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthenticate(t *testing.T) {
	t.Run("anonymous passes through", func(t *testing.T) {
		router := authRouter(nil)
		resp := doRequest(router, "/public", "")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "anonymous")
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		router := authRouter(nil)
		resp := doRequest(router, "/public", sessionToken(t, "12345", "Viewer", false))
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "12345")
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		router := authRouter(nil)
		resp := doRequest(router, "/public", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("token signed with wrong secret is rejected", func(t *testing.T) {
		router := authRouter(nil)
		token := signToken(t, SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "12345",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, "other-secret")
		resp := doRequest(router, "/public", token)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		router := authRouter(nil)
		token := signToken(t, SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "12345",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}, testSecret)
		resp := doRequest(router, "/public", token)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("session cookie works", func(t *testing.T) {
		router := authRouter(nil)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: sessionToken(t, "12345", "Viewer", false)})
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestRequireAuth(t *testing.T) {
	router := authRouter(nil)

	resp := doRequest(router, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doRequest(router, "/private", sessionToken(t, "12345", "Viewer", false))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRequireAdmin(t *testing.T) {
	t.Run("regular user is forbidden", func(t *testing.T) {
		router := authRouter(nil)
		resp := doRequest(router, "/admin", sessionToken(t, "12345", "Viewer", false))
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("admin claim grants access", func(t *testing.T) {
		router := authRouter(nil)
		resp := doRequest(router, "/admin", sessionToken(t, "12345", "Broadcaster", true))
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("configured admin id grants access", func(t *testing.T) {
		router := authRouter([]string{"12345"})
		resp := doRequest(router, "/admin", sessionToken(t, "12345", "Mod", false))
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		router := authRouter(nil)
		resp := doRequest(router, "/admin", "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
