package templater

import (
	"fmt"
	"net/url"
)

// URL helper functions for templates.
// These generate page URLs with query parameters.

// pageURL returns the base URL for viewing a page.
// Example: pageURL("test-page") → "/wiki/test-page"
func pageURL(slug string) string {
	return "/wiki/" + url.PathEscape(slug)
}

// editURL returns a URL for editing a page.
// Example: editURL("test") → "/wiki/test?edit"
func editURL(slug string) string {
	return fmt.Sprintf("/wiki/%s?edit", url.PathEscape(slug))
}

// historyURL returns a URL for viewing a page's revision history.
// Example: historyURL("test") → "/wiki/test?history"
func historyURL(slug string) string {
	return fmt.Sprintf("/wiki/%s?history", url.PathEscape(slug))
}

// revisionURL returns a URL for viewing a specific version of a page.
// Example: revisionURL("test", 5) → "/wiki/test?revision=5"
func revisionURL(slug string, version int) string {
	return fmt.Sprintf("/wiki/%s?revision=%d", url.PathEscape(slug), version)
}

// diffURL returns a URL for viewing a diff between two versions.
// If newVersion is 0, it means "diff to current" (omits the new param).
// Example: diffURL("test", 3, 5) → "/wiki/test?diff&old=3&new=5"
func diffURL(slug string, oldVersion, newVersion int) string {
	if newVersion > 0 {
		return fmt.Sprintf("/wiki/%s?diff&old=%d&new=%d", url.PathEscape(slug), oldVersion, newVersion)
	}
	return fmt.Sprintf("/wiki/%s?diff&old=%d", url.PathEscape(slug), oldVersion)
}
