package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/pkg/models"
)

const userIDContextKey = "user_id"

// OptionalAuth resolves the acting user from a Bearer JWT when one is
// presented. Absence of a token is fine: every recommendation endpoint
// works for anonymous sessions. A token that is present but invalid is
// rejected, so a caller never silently degrades to anonymous.
func OptionalAuth(cfg *config.AuthConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_AUTHORIZATION_FORMAT",
					"message": "Authorization header must be in format 'Bearer <token>'",
				},
			})
			c.Abort()
			return
		}

		userID, err := parseUserID(tokenParts[1], cfg.JWTSecret)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			c.Abort()
			return
		}

		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func parseUserID(tokenString, secret string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(subject, 10, 64)
}

// ActorFromContext builds the interaction actor: the authenticated user id
// when present, otherwise the session id supplied by the caller.
func ActorFromContext(c *gin.Context, sessionID *string) models.Actor {
	actor := models.Actor{SessionID: sessionID}
	if userID, exists := c.Get(userIDContextKey); exists {
		if id, ok := userID.(int64); ok {
			actor.UserID = &id
		}
	}
	return actor
}
