package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/middleware"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  "8f14e45f-ceea-4e7b-9c54-0a2e5f3a1a11",
		"username": "nour",
		"role":     role,
		"exp":      time.Now().Add(time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{middleware.JWTAuth(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, middleware.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"username": claims.Username, "role": claims.Role})
	})
	r.GET("/protected", handlers...)
	return r
}

func do(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := protectedRouter()

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, model.RoleCasher, "other-secret")
		assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+token).Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, model.RoleCasher, testSecret)
		w := do(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"nour"`)
	})
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(model.RoleAdmin)

	t.Run("role not allowed", func(t *testing.T) {
		token := signToken(t, model.RoleCasher, testSecret)
		assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+token).Code)
	})

	t.Run("role allowed", func(t *testing.T) {
		token := signToken(t, model.RoleAdmin, testSecret)
		assert.Equal(t, http.StatusOK, do(r, "Bearer "+token).Code)
	})
}
