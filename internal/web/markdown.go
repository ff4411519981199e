package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
		emoji.Emoji,
	),
	// Raw HTML passthrough stays off (no html.WithUnsafe()), so names cannot inject markup.
)

// renderInlineMarkdown renders a single-line name. The paragraph wrapper
// goldmark adds is stripped so the result fits inside headings and list items.
func renderInlineMarkdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	out := strings.TrimSpace(b.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}

// nameRenderer returns the template func used for list and todo names.
func nameRenderer(markdown bool) func(string) template.HTML {
	if markdown {
		return renderInlineMarkdown
	}
	return func(s string) template.HTML {
		return template.HTML(template.HTMLEscapeString(s))
	}
}
