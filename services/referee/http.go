package referee

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evenodd/league-manager/pkg/protocol"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Rounds is the interface for the match conduction service.
type Rounds interface {
	HandleRound(announcement protocol.RoundAnnouncement)
	Matches() []MatchState
	ID() string
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Rounds

	// The router instance to configure the HTTP routes.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.POST("/round", h.roundHandler)
	r.GET("/matches", h.matchesHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) roundHandler(c *gin.Context) {
	var announcement protocol.RoundAnnouncement
	if err := c.ShouldBindJSON(&announcement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if announcement.Protocol != protocol.Version {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown protocol"})
		c.Abort()
		return
	}

	h.Service.HandleRound(announcement)
	c.JSON(http.StatusOK, protocol.Ack{Status: "acknowledged"})
}

func (h *httpHandler) matchesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"referee_id": h.Service.ID(),
		"matches":    h.Service.Matches(),
	})
}
