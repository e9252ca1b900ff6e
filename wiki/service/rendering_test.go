package service_test

import (
	"strings"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/quillwiki/quillwiki/wiki/service"
)

func newTestRenderer() service.RenderingService {
	bm := bluemonday.UGCPolicy()
	bm.AllowAttrs("class").Globally()
	return service.NewRenderingService(bm)
}

func TestRender(t *testing.T) {
	rendering := newTestRenderer()

	t.Run("markdown becomes html", func(t *testing.T) {
		out, err := rendering.Render("# Heading\n\nSome *emphasis* here.")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(out, "Heading</h1>") {
			t.Errorf("expected heading markup, got %q", out)
		}
		if !strings.Contains(out, "<em>emphasis</em>") {
			t.Errorf("expected emphasis markup, got %q", out)
		}
	})

	t.Run("tables extension is enabled", func(t *testing.T) {
		out, err := rendering.Render("| a | b |\n|---|---|\n| 1 | 2 |")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(out, "<table>") {
			t.Errorf("expected table markup, got %q", out)
		}
	})

	t.Run("script tags are stripped", func(t *testing.T) {
		out, err := rendering.Render("hello <script>alert('xss')</script> world")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if strings.Contains(out, "<script>") {
			t.Errorf("expected script stripped, got %q", out)
		}
	})

	t.Run("raw event handlers are stripped", func(t *testing.T) {
		out, err := rendering.Render(`<a href="/x" onclick="steal()">link</a>`)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if strings.Contains(out, "onclick") {
			t.Errorf("expected onclick stripped, got %q", out)
		}
	})
}

func TestExcerpt(t *testing.T) {
	rendering := newTestRenderer()

	t.Run("strips markup and collapses whitespace", func(t *testing.T) {
		out, err := rendering.Excerpt("# Title\n\nFirst   paragraph\nwith a line break.", 200)
		if err != nil {
			t.Fatalf("Excerpt failed: %v", err)
		}
		if out != "Title First paragraph with a line break." {
			t.Errorf("unexpected excerpt: %q", out)
		}
	})

	t.Run("long content is truncated with an ellipsis", func(t *testing.T) {
		out, err := rendering.Excerpt(strings.Repeat("word ", 100), 20)
		if err != nil {
			t.Fatalf("Excerpt failed: %v", err)
		}
		if !strings.HasSuffix(out, "…") {
			t.Errorf("expected ellipsis suffix, got %q", out)
		}
		if len([]rune(strings.TrimSuffix(out, "…"))) > 20 {
			t.Errorf("excerpt longer than limit: %q", out)
		}
	})

	t.Run("short content is untouched", func(t *testing.T) {
		out, err := rendering.Excerpt("brief", 200)
		if err != nil {
			t.Fatalf("Excerpt failed: %v", err)
		}
		if out != "brief" {
			t.Errorf("unexpected excerpt: %q", out)
		}
	})
}
