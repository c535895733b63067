package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParticipantKey is the gin context key the middleware stores the caller's
// participant id under.
const ParticipantKey = "participant_id"

// TokenValidator resolves an auth token to the participant it was issued
// to. The identity registry implements this.
type TokenValidator interface {
	ValidateToken(token string) (participantID string, ok bool)
}

// Middleware authorizes inbound requests on the league manager side
// against tokens issued by the registry.
func Middleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}

		participantID, ok := validator.ValidateToken(token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid auth token"})
			c.Abort()
			return
		}

		c.Set(ParticipantKey, participantID)
		c.Next()
	}
}

// AgentMiddleware authorizes inbound requests on an agent against the
// agent's own league-issued token. The token is read through a getter
// since it only exists after registration completes.
func AgentMiddleware(ownToken func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}

		expected := ownToken()
		if expected == "" || token != expected {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid auth token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return token, token != ""
}
