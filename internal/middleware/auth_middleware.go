package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/service"
)

const UserIDContextKey = "userID"

// accessTokenParam carries the token for clients that cannot set headers, such as EventSource.
const accessTokenParam = "access_token"

// Auth requires a bearer token in the Authorization header.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return authenticate(authService, false)
}

// StreamAuth is Auth that also accepts ?access_token=. Mount it only on
// event-stream routes so tokens stay out of ordinary request URLs.
func StreamAuth(authService *service.AuthService) gin.HandlerFunc {
	return authenticate(authService, true)
}

func authenticate(authService *service.AuthService, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, apiErr := bearerToken(c, allowQuery)
		if apiErr != nil {
			abortWithError(c, apiErr)
			return
		}

		userID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			abortWithError(c, apiErr)
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, *apperrors.APIError) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := c.Query(accessTokenParam); token != "" {
				return token, nil
			}
		}
		return "", apperrors.Unauthorized("missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	return token, nil
}

func UserID(c *gin.Context) string {
	return c.GetString(UserIDContextKey)
}

func abortWithError(c *gin.Context, apiErr *apperrors.APIError) {
	body := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": body})
}
