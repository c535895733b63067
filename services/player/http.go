package player

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

// Games is the interface for the player service.
type Games interface {
	HandleInvitation(invitation protocol.GameInvitation) protocol.GameJoinAck
	HandleChoiceCall(call protocol.ChooseParityCall) protocol.ChooseParityResponse
	HandleStandings(update protocol.StandingsUpdate)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Games

	// The router instance to configure the HTTP routes.
	Router Router

	// StandingsRouter carries the token-guarded standings route; the
	// league manager signs those sends with this player's own token.
	StandingsRouter Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.POST("/invite", h.inviteHandler)
	r.POST("/choose", h.chooseHandler)

	sr := opts.StandingsRouter
	if sr == nil {
		sr = opts.Router
	}
	sr.POST("/standings", h.standingsHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) inviteHandler(c *gin.Context) {
	var invitation protocol.GameInvitation
	if err := c.ShouldBindJSON(&invitation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if invitation.Protocol != protocol.Version {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown protocol"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, h.Service.HandleInvitation(invitation))
}

func (h *httpHandler) chooseHandler(c *gin.Context) {
	var call protocol.ChooseParityCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if call.Protocol != protocol.Version {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown protocol"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, h.Service.HandleChoiceCall(call))
}

func (h *httpHandler) standingsHandler(c *gin.Context) {
	var update protocol.StandingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	h.Service.HandleStandings(update)
	c.JSON(http.StatusOK, protocol.Ack{Status: "acknowledged"})
}
