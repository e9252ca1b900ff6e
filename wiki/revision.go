package wiki

import "time"

// Revision is an immutable snapshot of a page's content at a version.
// Revisions are only ever inserted, one per committed version, and are
// displayed ordered by version descending.
type Revision struct {
	ID        int       `db:"id"`
	PageID    int       `db:"page_id"`
	Version   int       `db:"version"`
	Title     string    `db:"title"`
	Summary   string    `db:"summary"`
	Markdown  string    `db:"markdown"`
	AuthorID  int       `db:"author_id"`
	CreatedAt time.Time `db:"created_at"`
	Author    *User
}
