package repository

import "github.com/quillwiki/quillwiki/wiki"

// ModerationRepository defines the interface for the moderation queue.
//
// ReviewItem is the atomic heart of the workflow: the status transition is a
// single conditional update keyed on the item still being pending, and any
// page materialization in the review happens in the same transaction. If two
// reviewers race, exactly one conditional update matches; the loser gets
// wiki.ErrInvalidState.
type ModerationRepository interface {
	// InsertItem persists a new pending item and populates item.ID.
	InsertItem(item *wiki.ModerationItem) error

	// SelectItem retrieves an item by id, with submitter and target page
	// info joined in.
	SelectItem(id int) (*wiki.ModerationItem, error)

	// SelectQueue lists all items, newest first.
	SelectQueue() ([]*wiki.ModerationItem, error)

	// SelectItemsByAuthor lists a submitter's own items, newest first.
	SelectItemsByAuthor(authorID int) ([]*wiki.ModerationItem, error)

	// ReviewItem transitions a pending item to a terminal status and applies
	// review.Apply (if any) atomically. Returns wiki.ErrInvalidState if the
	// item was already reviewed, wiki.ErrNotFound if it does not exist.
	ReviewItem(id int, review *wiki.Review) error

	// CountItemsByStatus returns item totals grouped by status.
	CountItemsByStatus() (map[string]int, error)
}
