package wiki

import (
	"strings"
	"time"
)

// Default result caps for search queries.
const (
	SearchLimit         = 50
	AdvancedSearchLimit = 100
)

// SearchQuery is a substring filter over published pages. Text matches
// title or content; Author matches the author's screen name; From/To bound
// the page creation time. Zero values disable a filter.
type SearchQuery struct {
	Text   string
	Author string
	From   time.Time
	To     time.Time
	Limit  int
}

// IsEmpty reports whether the query has no text to match.
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}
