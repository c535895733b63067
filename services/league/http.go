package league

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evenodd/league-manager/pkg/auth"
	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/evenodd/league-manager/repos/registry"
	"github.com/evenodd/league-manager/services/standings"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Coordinator is the interface for the league service.
type Coordinator interface {
	HandleRegister(req protocol.RegisterRequest) (protocol.RegisterResponse, error)
	HandleResult(senderID string, report protocol.MatchResultReport) error
	Snapshot() []protocol.StandingsRow
	Started() bool
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Coordinator

	// The router instance to configure the open HTTP routes.
	Router Router

	// AuthRouter carries the token-guarded routes.
	AuthRouter Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	h := &httpHandler{opts}

	r := opts.Router
	r.POST("/register", h.registerHandler)
	r.GET("/standings", h.standingsHandler)

	ar := opts.AuthRouter
	if ar == nil {
		ar = opts.Router
	}
	ar.POST("/result", h.resultHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) registerHandler(c *gin.Context) {
	var req protocol.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	resp, err := h.Service.HandleRegister(req)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrRosterFull):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, registry.ErrDuplicateRegistration):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, registry.ErrUnknownRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Could not register participant: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) resultHandler(c *gin.Context) {
	var report protocol.MatchResultReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	senderID := c.GetString(auth.ParticipantKey)
	err := h.Service.HandleResult(senderID, report)
	if err != nil {
		switch {
		case errors.Is(err, standings.ErrStaleResult):
			// Duplicate reports are acknowledged, not failed, so a
			// retrying referee can stop.
			c.JSON(http.StatusOK, protocol.Ack{Status: "duplicate"})
		case errors.Is(err, ErrUnknownMatch), errors.Is(err, ErrNotStarted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			c.Abort()
		case errors.Is(err, ErrWrongReferee):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			c.Abort()
		default:
			log.Printf("Could not apply result: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
			c.Abort()
		}
		return
	}

	c.JSON(http.StatusOK, protocol.Ack{Status: "acknowledged"})
}

func (h *httpHandler) standingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"started":   h.Service.Started(),
		"standings": h.Service.Snapshot(),
	})
}
