package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticValidator map[string]string

func (v staticValidator) ValidateToken(token string) (string, bool) {
	id, ok := v[token]
	return id, ok
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"participant": c.GetString(ParticipantKey)})
	})
	return router
}

func request(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	router := newRouter(Middleware(staticValidator{"tok-1": "REF-1"}))

	assert.Equal(t, http.StatusOK, request(router, "Bearer tok-1").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "tok-1").Code, "Only bearer tokens are accepted")
}

func TestAgentMiddleware(t *testing.T) {
	token := ""
	router := newRouter(AgentMiddleware(func() string { return token }))

	assert.Equal(t, http.StatusUnauthorized, request(router, "Bearer anything").Code,
		"Nothing validates before registration")

	token = "tok-own"
	assert.Equal(t, http.StatusOK, request(router, "Bearer tok-own").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "Bearer other").Code)
}
