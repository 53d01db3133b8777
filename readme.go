package main

import (
	_ "embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var indexHTML string

// pageRenderer serves the index page through echo's Renderer hook.
type pageRenderer struct {
	templates *template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{
		templates: template.Must(template.New("index").Parse(indexHTML)),
	}
}

func (r *pageRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type indexPage struct {
	OwnerName string
}
