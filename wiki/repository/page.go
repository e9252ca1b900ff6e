package repository

import "github.com/quillwiki/quillwiki/wiki"

// PageRepository defines the interface for page and revision persistence.
// Mutations are conditional writes: inserts fail on slug collision, updates
// only commit when the row still carries the expected version, so concurrent
// writers never silently overwrite each other.
type PageRepository interface {
	// SelectPageBySlug retrieves a page in any status by its slug.
	SelectPageBySlug(slug string) (*wiki.Page, error)

	// SelectPublishedPageBySlug retrieves a published page by its slug.
	SelectPublishedPageBySlug(slug string) (*wiki.Page, error)

	// SelectPageByID retrieves a page in any status by its id.
	SelectPageByID(id int) (*wiki.Page, error)

	// SelectAllPages lists published pages, most recently updated first.
	SelectAllPages() ([]*wiki.PageSummary, error)

	// SearchPages runs a substring filter over published pages.
	SearchPages(q wiki.SearchQuery) ([]*wiki.PageSummary, error)

	// InsertPage inserts a new page at version 1 together with its first
	// revision. Fails with wiki.ErrDuplicateSlug if the slug is taken.
	// Populates page.ID on success.
	InsertPage(page *wiki.Page) error

	// UpdatePage applies a new version of the page and records a revision
	// snapshot of the new state, but only if the stored row still carries
	// prevVersion. Fails with wiki.ErrEditConflict when the version moved and
	// wiki.ErrDuplicateSlug when a recomputed slug collides.
	UpdatePage(page *wiki.Page, prevVersion int) error

	// DeletePage removes a page and purges its revisions.
	DeletePage(id int) error

	// SelectRevisions lists a page's revisions, newest version first.
	SelectRevisions(pageID int) ([]*wiki.Revision, error)

	// SelectRevision retrieves a single revision by page and version.
	SelectRevision(pageID, version int) (*wiki.Revision, error)

	// CountPagesByStatus returns page totals grouped by lifecycle status.
	CountPagesByStatus() (map[string]int, error)
}
