// Package web embeds the page templates and static assets of the marketplace UI.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// Static holds the style sheet served under /static/.
var Static = sub("static")

// Templates holds the pages. Each page defines "content" and is rendered
// inside the "layout" template of layout.html.
var Templates = sub("templates")

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return f
}
