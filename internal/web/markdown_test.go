package web

import (
	"strings"
	"testing"
)

func TestRenderInlineMarkdown(t *testing.T) {
	t.Parallel()

	if got := string(renderInlineMarkdown("**milk** and ~~eggs~~")); got != "<strong>milk</strong> and <del>eggs</del>" {
		t.Fatalf("got %q", got)
	}
	if got := renderInlineMarkdown("   "); got != "" {
		t.Fatalf("blank: got %q", got)
	}
	if got := string(renderInlineMarkdown("<img src=x onerror=alert(1)>")); strings.Contains(got, "<img") {
		t.Fatalf("raw html passed through: %q", got)
	}
}

func TestNameRenderer_Plain(t *testing.T) {
	t.Parallel()
	render := nameRenderer(false)
	if got := string(render("<b>Tom & Jerry</b>")); got != "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;" {
		t.Fatalf("got %q", got)
	}
}
