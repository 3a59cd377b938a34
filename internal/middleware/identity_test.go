package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTrustedIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TrustedIdentity())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, CallerID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Faculty-ID", "FAC001")
	r.ServeHTTP(w, req)
	assert.Equal(t, "FAC001", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Body.String())
}

func TestRequireIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TrustedIdentity())
	r.PUT("/protected", RequireIdentity(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/protected", nil)
	req.Header.Set("X-Faculty-ID", "FAC001")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
