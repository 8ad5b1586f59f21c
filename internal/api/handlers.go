package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/internal/types"
)

// HealthHandler reports liveness. When a check is configured, its result
// is reported under "database"; a failing check degrades the status but
// keeps 200 because history storage is optional.
type HealthHandler struct {
	check func(context.Context) error
}

// NewHealthHandler creates a health handler; check may be nil
func NewHealthHandler(check func(context.Context) error) *HealthHandler {
	return &HealthHandler{check: check}
}

// Check returns the health status of the API
func (h *HealthHandler) Check(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"message": "Fridge2Fork API is running",
	}
	if h.check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			resp["status"] = "degraded"
			resp["database"] = "unavailable"
			_ = c.Error(err)
		} else {
			resp["database"] = "ok"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// badRequest answers 400 with err's message
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// serviceError maps a failure from the model pipeline to a status:
// 400 for validation, 504 for deadlines and 502 for everything else.
func serviceError(c *gin.Context, log zerolog.Logger, err error) {
	status := http.StatusBadGateway
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	_ = c.Error(err)
	log.Error().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("request failed")
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
