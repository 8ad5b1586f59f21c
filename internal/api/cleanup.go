package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/internal/storage"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

var errNoCleanupPath = errors.New("path or paths is required")

type CleanupHandler struct {
	store  *storage.ScratchStore
	logger zerolog.Logger
}

func NewCleanupHandler(store *storage.ScratchStore, logger zerolog.Logger) *CleanupHandler {
	return &CleanupHandler{
		store:  store,
		logger: logger.With().Str("handler", "cleanup").Logger(),
	}
}

// CleanupImage removes the named scratch files. Filesystem failures are
// reported as success=false with status 200.
func (h *CleanupHandler) CleanupImage(c *gin.Context) {
	var req types.CleanupImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	paths := req.All()
	if len(paths) == 0 {
		badRequest(c, errNoCleanupPath)
		return
	}

	if err := h.store.Remove(paths...); err != nil {
		h.logger.Warn().Err(err).Msg("failed to remove images")
		c.JSON(http.StatusOK, types.CleanupResponse{Success: false})
		return
	}
	c.JSON(http.StatusOK, types.CleanupResponse{Success: true})
}

// CleanupSession empties both scratch directories except files still used
// by in-flight requests.
func (h *CleanupHandler) CleanupSession(c *gin.Context) {
	removed, err := h.store.Purge()
	if err != nil {
		h.logger.Warn().Err(err).Int("removed", removed).Msg("failed to purge scratch directories")
		c.JSON(http.StatusOK, types.CleanupResponse{Success: false})
		return
	}
	h.logger.Info().Int("removed", removed).Msg("purged scratch directories")
	c.JSON(http.StatusOK, types.CleanupResponse{Success: true})
}
