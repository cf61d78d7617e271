// Package pages writes the static HTML pages used for error responses.
package pages

import (
	"os"

	"github.com/gin-gonic/gin"
)

// Write responds with the HTML file at path and the given status. When the
// file cannot be read, fallback is sent as plain text with the same status.
func Write(c *gin.Context, status int, path, fallback string) {
	body, err := os.ReadFile(path)
	if err != nil {
		c.String(status, fallback)
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}
