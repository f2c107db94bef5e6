package utils

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
	)

	contentPolicy = newContentPolicy()
	snippetPolicy = newSnippetPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("mark")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^search-highlight$`)).OnElements("mark")
	return p
}

func newSnippetPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("mark")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^search-highlight$`)).OnElements("mark")
	return p
}

// RenderMarkdown converts post content to HTML. Raw HTML in the source is passed
// to the renderer and then sanitized, so only UGC-safe markup survives.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(contentPolicy.SanitizeBytes(buf.Bytes()))
}

// SanitizeSnippet keeps highlight marks and escapes everything else.
func SanitizeSnippet(s string) template.HTML {
	return template.HTML(snippetPolicy.Sanitize(s))
}
