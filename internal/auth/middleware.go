package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorContextKey = "auth.actor"

// RequireAdmin gates a route group behind an authenticated admin session.
// The resolved actor is stored on the request context; handlers read it via
// ActorFromContext.
func (s *Service) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := s.EnsureAdmin(BearerToken(c))
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrForbidden) {
				status = http.StatusForbidden
			} else if !errors.Is(err, ErrUnauthorized) {
				s.logger.Error("Failed to resolve session", zap.Error(err))
				status = http.StatusInternalServerError
				err = errors.New("failed to resolve session")
			}
			c.AbortWithStatusJSON(status, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor stored by RequireAdmin.
func ActorFromContext(c *gin.Context) (*models.Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return nil, false
	}
	actor, ok := value.(*models.Actor)
	return actor, ok
}

// BearerToken extracts the session token from the Authorization header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
