package wiki

import (
	"fmt"
	"time"
)

// Page lifecycle statuses.
const (
	StatusDraft         = "draft"
	StatusPublished     = "published"
	StatusPendingReview = "pending_review"
	StatusArchived      = "archived"
)

// Page is a named, versioned document. The slug is unique among live pages
// and the version increases by exactly one on every content mutation.
type Page struct {
	ID        int       `db:"id"`
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	Summary   string    `db:"summary"`
	Markdown  string    `db:"markdown"`
	HTML      string    `db:"html"`
	AuthorID  int       `db:"author_id"`
	Status    string    `db:"status"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Author    *User

	// EditorID is the user writing the current mutation, used to attribute
	// the revision snapshot. Falls back to AuthorID when unset.
	EditorID int `db:"-"`
}

func (p *Page) String() string {
	return fmt.Sprintf("%s v%d (%s)", p.Slug, p.Version, p.Status)
}

// DisplayTitle returns the page's title for display.
func (p *Page) DisplayTitle() string {
	return p.Title
}

// PageSummary is a lightweight page representation for listings and search
// results. Summary falls back to a rendered excerpt when the stored summary
// is empty.
type PageSummary struct {
	ID         int       `db:"id"`
	Slug       string    `db:"slug"`
	Title      string    `db:"title"`
	Summary    string    `db:"summary"`
	Markdown   string    `db:"markdown"`
	AuthorName string    `db:"screenname"`
	Version    int       `db:"version"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DisplayTitle returns the display title for the page summary.
func (s *PageSummary) DisplayTitle() string {
	return s.Title
}
