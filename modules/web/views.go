package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/example/task-tracker/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// views implements fiber.Views over the embedded templates. Every page is
// parsed together with the layout and rendered through the "layout" template.
type views struct {
	fs    fs.FS
	pages map[string]*template.Template
}

var _ fiber.Views = (*views)(nil)

func newViews() *views {
	return &views{fs: templateFS}
}

var viewFuncs = template.FuncMap{
	"taskPath":     TaskPath,
	"completePath": CompletePath,
	"removePath":   RemovePath,
	"fieldError": func(errs validator.Errors, field string) string {
		return errs[field].Message
	},
	"when": func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.Local().Format("Jan 2, 2006 15:04")
		case *time.Time:
			if t == nil {
				return ""
			}
			return t.Local().Format("Jan 2, 2006 15:04")
		default:
			return ""
		}
	},
}

// Load parses the layout together with each page template.
func (v *views) Load() error {
	files, err := fs.Glob(v.fs, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(viewFuncs).ParseFS(v.fs, layoutFile, file)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		pages[name] = tmpl
	}
	v.pages = pages
	return nil
}

// Render executes the named page.
func (v *views) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
