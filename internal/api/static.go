package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// StaticHandler serves the exported frontend bundle with a fallback to
// index.html for client-side routes.
type StaticHandler struct {
	dir string
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// Serve is meant for router.NoRoute
func (h *StaticHandler) Serve(c *gin.Context) {
	urlPath := c.Request.URL.Path
	if strings.HasPrefix(urlPath, "/api/") || urlPath == "/api" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if file, ok := h.resolve(urlPath); ok {
		c.File(file)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// resolve maps urlPath to a file inside dir. Order: exact file, directory
// index, .html sibling, then the root index.html.
func (h *StaticHandler) resolve(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	base := filepath.Join(h.dir, filepath.FromSlash(clean))

	candidates := []string{
		base,
		filepath.Join(base, "index.html"),
		base + ".html",
		filepath.Join(h.dir, "index.html"),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}
