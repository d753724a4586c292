package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoboard/api/internal/cache"
	"photoboard/api/internal/config"
	"photoboard/api/internal/middleware"
	"photoboard/api/internal/service"
)

type memSessions struct {
	live map[string]bool
}

func (m *memSessions) Create(_ context.Context, sessionID string, _ time.Duration) error {
	m.live[sessionID] = true
	return nil
}

func (m *memSessions) Check(_ context.Context, sessionID string) error {
	if !m.live[sessionID] {
		return cache.ErrSessionNotFound
	}
	return nil
}

func (m *memSessions) Revoke(_ context.Context, sessionID string) error {
	delete(m.live, sessionID)
	return nil
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Auth: config.AuthConfig{
			AdminPassword: "hunter2",
			JWTSecret:     "test-secret",
			SessionTTL:    time.Hour,
		},
	}
	auth := service.NewAuthService(&memSessions{live: map[string]bool{}}, cfg, zerolog.Nop())
	h := NewHandlerSet(zerolog.Nop(), cfg, auth, nil, nil, nil)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", middleware.Auth(auth), h.Logout)
	return router
}

func TestLoginReturnsToken(t *testing.T) {
	router := newAuthRouter()

	recorder, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]any{
		"password": "hunter2",
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, body["token"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := newAuthRouter()

	recorder, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]any{
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestLoginRequiresPassword(t *testing.T) {
	router := newAuthRouter()

	recorder, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLogoutRequiresToken(t *testing.T) {
	router := newAuthRouter()

	recorder, body := doJSON(t, router, http.MethodPost, "/api/auth/logout", nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "missing_token", body["error"])
}
