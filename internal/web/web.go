// Package web holds the server-rendered pages and their embedded assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

// Page template names accepted by Renderer.
const (
	PageHome     = "home.html"
	PageBlogList = "blog_list.html"
	PageBlogPost = "blog_post.html"
	PageAdmin    = "admin.html"
	PageNotFound = "not_found.html"
)

var pageNames = []string{PageHome, PageBlogList, PageBlogPost, PageAdmin, PageNotFound}

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every template receives; Body carries the page specific part.
type Page struct {
	SiteName    string
	Title       string
	Description string
	Year        int
	Body        interface{}
}

// NewPage fills in the fields shared by every page.
func NewPage(siteName, title, description string, body interface{}) Page {
	return Page{
		SiteName:    siteName,
		Title:       title,
		Description: description,
		Year:        time.Now().Year(),
		Body:        body,
	}
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
	"join":       strings.Join,
}

// Renderer is a gin HTMLRender that pairs each page with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses all embedded templates once.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Instance implements render.HTMLRender. Unknown names fall back to the
// not found page.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		t = r.pages[PageNotFound]
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

// StaticFS serves the embedded stylesheet and scripts.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
