package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/fridge2fork/backend/internal/metrics"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New()

	router := gin.New()
	router.Use(RequestLogger(zerolog.New(&buf), m))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"route":"/api/health"`)
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "http_requests_total"))

	t.Run("keeps caller request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
		assert.Contains(t, buf.String(), `"route":"unmatched"`)
	})
}
