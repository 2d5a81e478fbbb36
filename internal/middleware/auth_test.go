package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/pkg/models"
)

const testSecret = "test-secret"

func setupAuthRouter(t *testing.T) (*gin.Engine, *models.Actor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.AuthConfig{JWTSecret: testSecret}

	var captured models.Actor
	router := gin.New()
	router.Use(OptionalAuth(cfg, logger))
	router.GET("/probe", func(c *gin.Context) {
		var sessionID *string
		if sid := c.Query("session_id"); sid != "" {
			sessionID = &sid
		}
		captured = ActorFromContext(c, sessionID)
		c.Status(http.StatusOK)
	})

	return router, &captured
}

func signedToken(t *testing.T, subject, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestOptionalAuth_NoTokenIsAnonymous(t *testing.T) {
	router, actor := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe?session_id=s1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, actor.UserID)
	require.NotNil(t, actor.SessionID)
	assert.Equal(t, "s1", *actor.SessionID)
}

func TestOptionalAuth_ValidTokenResolvesUser(t *testing.T) {
	router, actor := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "42", testSecret))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, actor.UserID)
	assert.Equal(t, int64(42), *actor.UserID)
}

func TestOptionalAuth_RejectsBadSignature(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "42", "wrong-secret"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestOptionalAuth_RejectsMalformedHeader(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTHORIZATION_FORMAT")
}
