package middleware

import (
	"net/http"
	"strings"

	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// AuthMiddleware requires a valid Bearer token and stores the resolved user
// in the request context.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			c.Abort()
			return
		}

		actor, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth resolves the actor when a token is present but lets anonymous
// requests through. Reads are public, the permission policy allows them for
// anyone.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if actor, err := authService.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(actorKey, actor)
			}
		}
		c.Next()
	}
}

// GetActor returns the authenticated user stored by the auth middleware, nil
// for anonymous requests.
func GetActor(c *gin.Context) *models.User {
	value, exists := c.Get(actorKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return actor
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
