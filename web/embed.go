// Package web holds the server-rendered pages and their static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cppla/docportal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const displayDate = "02/01/2006 15:04"

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format(displayDate)
	},
	"datePtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Local().Format(displayDate)
	},
	"inputDate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Local().Format("2006-01-02T15:04")
	},
	"fileSize":   utils.FormatFileSize,
	"markdown":   utils.RenderMarkdown,
	"highlight":  utils.SanitizeSnippet,
	"truncate":   truncate,
	"rate":       formatRate,
	"add":        func(a, b int) int { return a + b },
	"pathEscape": url.PathEscape,
	"uintVal": func(p *uint) uint {
		if p == nil {
			return 0
		}
		return *p
	},
}

// Templates parses every embedded page with Funcs.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
	return t, errors.Wrap(err, "parse templates")
}

// Static serves the embedded assets below /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// formatRate prints a rate with dot thousands separators and up to two decimals.
func formatRate(v *float64) string {
	if v == nil {
		return "-"
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if frac = strings.TrimRight(frac, "0"); frac != "" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
