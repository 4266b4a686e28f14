// Package views holds the portal's HTML pages. Page bodies are placeholders;
// what matters is which page a session is shown.
package views

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var files embed.FS

// Template names, as passed to gin's c.HTML.
const (
	Loading      = "loading.html"
	Landing      = "landing.html"
	Login        = "login.html"
	Unauthorized = "unauthorized.html"
	Dashboard    = "dashboard.html"
	Profile      = "profile.html"
	Error        = "error.html"
)

// Page is the data every template renders from.
type Page struct {
	Title          string
	Identity       *identity.Identity
	Home           string
	Section        string
	Email          string
	Error          string
	Next           string
	TokenExpiresAt string
}

// Load parses the embedded templates for gin's SetHTMLTemplate.
func Load() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}

// RenderLoading writes the neutral page shown while the session resolves.
func RenderLoading(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusServiceUnavailable, Loading, Page{Title: "Loading"})
}

// RenderError writes the portal's 500 page, or the JSON envelope for API
// and JSON clients.
func RenderError(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	c.HTML(http.StatusInternalServerError, Error, Page{Title: "Error"})
}
