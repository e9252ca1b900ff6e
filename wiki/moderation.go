package wiki

import (
	"database/sql"
	"time"
)

// Moderation item action types.
const (
	ModerationCreate = "create"
	ModerationEdit   = "edit"
	ModerationDelete = "delete"
)

// Moderation item statuses. Pending is the only non-terminal state.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// ModerationItem is a proposed page change awaiting review. It is created
// once on submission and mutated exactly once, when a reviewer approves or
// rejects it. ModeratorID and ReviewedAt are unset while the item is pending
// and set together on review.
type ModerationItem struct {
	ID               int            `db:"id"`
	PageID           sql.NullInt64  `db:"page_id"`
	ActionType       string         `db:"action_type"`
	ProposedTitle    string         `db:"proposed_title"`
	ProposedMarkdown string         `db:"proposed_markdown"`
	ProposedSummary  string         `db:"proposed_summary"`
	AuthorID         int            `db:"author_id"`
	ModeratorID      sql.NullInt64  `db:"moderator_id"`
	Status           string         `db:"status"`
	ModeratorNotes   string         `db:"moderator_notes"`
	CreatedAt        time.Time      `db:"created_at"`
	ReviewedAt       sql.NullTime   `db:"reviewed_at"`
	AuthorName       string         `db:"author_name"`
	PageTitle        sql.NullString `db:"page_title"`
	PageSlug         sql.NullString `db:"page_slug"`
}

// IsPending reports whether the item still awaits review.
func (m *ModerationItem) IsPending() bool {
	return m.Status == ModerationPending
}

// TargetPageID returns the referenced page id for edit/delete items.
func (m *ModerationItem) TargetPageID() (int, bool) {
	if !m.PageID.Valid {
		return 0, false
	}
	return int(m.PageID.Int64), true
}

// Review carries the outcome of a moderation decision to the store. Apply is
// nil for rejections; for approvals it holds the page mutation that must be
// committed in the same transaction as the status change.
type Review struct {
	Status      string
	ModeratorID int
	Notes       string
	Apply       *PageChange
}

// PageChange operations, applied during review materialization.
const (
	ChangeCreate = "create"
	ChangeEdit   = "edit"
	ChangeDelete = "delete"
)

// PageChange describes a single page mutation. PrevVersion guards edits: the
// update only commits if the page row still carries that version.
type PageChange struct {
	Op          string
	Page        *Page
	PrevVersion int
}
