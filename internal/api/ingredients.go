package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/internal/service"
	"github.com/pageza/fridge2fork/backend/internal/storage"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

// Multipart fields accepted for uploads
var uploadFields = []string{"img", "images"}

type IngredientHandler struct {
	ingredients    service.IIngredientService
	store          *storage.ScratchStore
	maxUploadBytes int64
	logger         zerolog.Logger
}

func NewIngredientHandler(ingredients service.IIngredientService, store *storage.ScratchStore, maxUploadBytes int64, logger zerolog.Logger) *IngredientHandler {
	return &IngredientHandler{
		ingredients:    ingredients,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "ingredients").Logger(),
	}
}

// UserImage stores the uploaded photos and extracts their ingredients
func (h *IngredientHandler) UserImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes)})
			return
		}
		badRequest(c, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	var files []*multipart.FileHeader
	for _, field := range uploadFields {
		files = append(files, form.File[field]...)
	}
	if len(files) == 0 {
		badRequest(c, service.ErrNoImages)
		return
	}

	paths := make([]string, 0, len(files))
	var releases []func()
	defer func() {
		for _, release := range releases {
			release()
		}
	}()

	discard := func() {
		for _, release := range releases {
			release()
		}
		if err := h.store.Remove(paths...); err != nil {
			h.logger.Warn().Err(err).Msg("failed to discard uploads")
		}
	}

	for _, fh := range files {
		path, release, err := h.saveUpload(fh)
		if err != nil {
			discard()
			if errors.Is(err, storage.ErrNotAnImage) {
				badRequest(c, fmt.Errorf("%s: %w", fh.Filename, storage.ErrNotAnImage))
				return
			}
			h.logger.Error().Err(err).Str("file", fh.Filename).Msg("failed to store upload")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		paths = append(paths, path)
		releases = append(releases, release)
	}

	ingredients, err := h.ingredients.ExtractIngredients(c.Request.Context(), paths)
	if err != nil {
		discard()
		serviceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, types.UserImageResponse{
		Ingredients: ingredients,
		ImagePaths:  paths,
	})
}

func (h *IngredientHandler) saveUpload(fh *multipart.FileHeader) (string, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return h.store.SaveUpload(f)
}

// CleanIngredients filters a typed ingredient list down to food items
func (h *IngredientHandler) CleanIngredients(c *gin.Context) {
	var req types.CleanIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cleaned, err := h.ingredients.CleanIngredients(c.Request.Context(), req.Ingredients)
	if err != nil {
		serviceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, types.IngredientsResponse{Ingredients: cleaned})
}
