package service

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
)

// RenderingService defines the interface for rendering markdown content.
type RenderingService interface {
	// Render converts markdown to sanitized HTML.
	Render(markdown string) (string, error)

	// Excerpt renders markdown and extracts a plain-text snippet of at most
	// maxRunes runes, for listings and search results.
	Excerpt(markdown string, maxRunes int) (string, error)
}

// renderingService is the default implementation of RenderingService.
type renderingService struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewRenderingService creates a new RenderingService.
func NewRenderingService(sanitizer *bluemonday.Policy) RenderingService {
	return &renderingService{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
			),
		),
		sanitizer: sanitizer,
	}
}

// Render converts markdown to sanitized HTML.
func (s *renderingService) Render(markdown string) (string, error) {
	buf := &bytes.Buffer{}
	if err := s.md.Convert([]byte(markdown), buf); err != nil {
		return "", err
	}

	return s.sanitizer.Sanitize(buf.String()), nil
}

// Excerpt renders markdown and extracts a plain-text snippet.
func (s *renderingService) Excerpt(markdown string, maxRunes int) (string, error) {
	buf := &bytes.Buffer{}
	if err := s.md.Convert([]byte(markdown), buf); err != nil {
		return "", err
	}

	root, err := html.Parse(buf)
	if err != nil {
		return "", err
	}

	document := goquery.NewDocumentFromNode(root)
	text := strings.Join(strings.Fields(document.Text()), " ")

	runes := []rune(text)
	if len(runes) > maxRunes {
		text = strings.TrimSpace(string(runes[:maxRunes])) + "…"
	}

	return text, nil
}
