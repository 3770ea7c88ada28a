// Package views holds the HTML templates. A template is named after its
// path below templates/ without the extension, e.g. "admin/dashboard".
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates
var files embed.FS

const partialsDir = "partials/"

// Load parses every page together with the shared partials.
func Load() (*template.Template, error) {
	root, err := fs.Sub(files, "templates")
	if err != nil {
		return nil, err
	}

	tmpl := template.New("")
	var pages []string
	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		if strings.HasPrefix(p, partialsDir) {
			return parse(tmpl, root, p, "")
		}
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range pages {
		if err := parse(tmpl, root, p, strings.TrimSuffix(p, ".html")); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

// parse adds file p to tmpl. Partials only contribute their define blocks.
func parse(tmpl *template.Template, root fs.FS, p, name string) error {
	raw, err := fs.ReadFile(root, p)
	if err != nil {
		return fmt.Errorf("read template %s: %w", p, err)
	}
	if name == "" {
		name = p
	}
	if _, err := tmpl.New(name).Parse(string(raw)); err != nil {
		return fmt.Errorf("parse template %s: %w", p, err)
	}
	return nil
}
