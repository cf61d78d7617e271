package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/abduss/filegate/internal/pages"
	"github.com/gin-gonic/gin"
)

const (
	notFoundPageName     = "404.html"
	fileNotFoundPageName = "file-notfound.html"
	indexPageName        = "index.html"
)

func fileNotFoundPage(staticDir string) string {
	return filepath.Join(staticDir, fileNotFoundPageName)
}

// staticFallback serves files under dir for unmatched GET and HEAD requests.
// Anything else, including paths inside the scratch directory, gets the 404 page.
func staticFallback(dir, scratchDir string) gin.HandlerFunc {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = filepath.Clean(dir)
	}
	scratch := ""
	if scratchDir != "" {
		if abs, err := filepath.Abs(scratchDir); err == nil {
			scratch = abs
		}
	}
	notFound := filepath.Join(root, notFoundPageName)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			pages.Write(c, http.StatusNotFound, notFound, "Not Found")
			return
		}

		target := filepath.Join(root, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if within(scratch, target) {
			pages.Write(c, http.StatusNotFound, notFound, "Not Found")
			return
		}

		info, err := os.Stat(target)
		if err == nil && info.IsDir() {
			target = filepath.Join(target, indexPageName)
			info, err = os.Stat(target)
		}
		if err != nil || info.IsDir() {
			pages.Write(c, http.StatusNotFound, notFound, "Not Found")
			return
		}

		c.File(target)
	}
}

func within(dir, target string) bool {
	if dir == "" {
		return false
	}
	return target == dir || strings.HasPrefix(target, dir+string(filepath.Separator))
}
