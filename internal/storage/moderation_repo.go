package storage

import (
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/quillwiki/quillwiki/wiki"
)

// moderationQuery selects moderation items with the submitter's screen name
// and, when the target page still exists, its title and slug joined in.
const moderationQuery = `SELECT m.id, m.page_id, m.action_type, m.proposed_title, m.proposed_markdown,
		m.proposed_summary, m.author_id, m.moderator_id, m.status, m.moderator_notes,
		m.created_at, m.reviewed_at,
		author.screenname AS author_name, p.title AS page_title, p.slug AS page_slug
	FROM ModerationItem m
	JOIN User author ON m.author_id = author.id
	LEFT JOIN Page p ON m.page_id = p.id`

// InsertItem persists a new pending item and populates item.ID.
func (db *sqliteDb) InsertItem(item *wiki.ModerationItem) error {
	result, err := db.conn.Exec(
		`INSERT INTO ModerationItem (page_id, action_type, proposed_title, proposed_markdown,
			proposed_summary, author_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.PageID, item.ActionType, item.ProposedTitle, item.ProposedMarkdown,
		item.ProposedSummary, item.AuthorID, wiki.ModerationPending)
	if err != nil {
		return errors.Wrap(err, "insert moderation item")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "moderation item id")
	}
	item.ID = int(id)
	item.Status = wiki.ModerationPending
	return nil
}

// SelectItem retrieves an item by id.
func (db *sqliteDb) SelectItem(id int) (*wiki.ModerationItem, error) {
	item := &wiki.ModerationItem{}
	err := db.SelectModerationItemStmt.Get(item, id)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select moderation item")
	}
	return item, nil
}

// SelectQueue lists all items, newest first.
func (db *sqliteDb) SelectQueue() ([]*wiki.ModerationItem, error) {
	items := []*wiki.ModerationItem{}
	err := db.conn.Select(&items, moderationQuery+` ORDER BY m.created_at DESC, m.id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select moderation queue")
	}
	return items, nil
}

// SelectItemsByAuthor lists a submitter's own items, newest first.
func (db *sqliteDb) SelectItemsByAuthor(authorID int) ([]*wiki.ModerationItem, error) {
	items := []*wiki.ModerationItem{}
	err := db.conn.Select(&items,
		moderationQuery+` WHERE m.author_id = ? ORDER BY m.created_at DESC, m.id DESC`, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "select moderation items by author")
	}
	return items, nil
}

// ReviewItem transitions a pending item to a terminal status and applies the
// review's page change in the same transaction. The conditional update on
// status is the arbiter under concurrent reviews: whichever reviewer's update
// matches first wins, and the loser's transaction rolls back with
// wiki.ErrInvalidState before touching any page.
func (db *sqliteDb) ReviewItem(id int, review *wiki.Review) (err error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin review")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("review rollback failed", slog.Any("error", rbErr))
			}
			return
		}
		err = tx.Commit()
	}()

	result, err := tx.Exec(
		`UPDATE ModerationItem
		 SET status = ?, moderator_id = ?, moderator_notes = ?, reviewed_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		review.Status, review.ModeratorID, review.Notes, id)
	if err != nil {
		return errors.Wrap(err, "review status update")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "review status rows")
	}
	if affected == 0 {
		var exists int
		if err = tx.Get(&exists, `SELECT COUNT(*) FROM ModerationItem WHERE id = ?`, id); err != nil {
			return errors.Wrap(err, "review recheck")
		}
		if exists == 0 {
			err = wiki.ErrNotFound
			return err
		}
		err = wiki.ErrInvalidState
		return err
	}

	if review.Apply != nil {
		err = applyChangeTx(tx, id, review.Apply)
	}
	return err
}

// applyChangeTx materializes an approved change onto the page model. Create
// links the item to the page it produced so the queue view can point at it.
func applyChangeTx(tx *sqlx.Tx, itemID int, change *wiki.PageChange) error {
	switch change.Op {
	case wiki.ChangeCreate:
		if err := insertPageTx(tx, change.Page); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE ModerationItem SET page_id = ? WHERE id = ?`, change.Page.ID, itemID)
		return errors.Wrap(err, "link created page")

	case wiki.ChangeEdit:
		return updatePageTx(tx, change.Page, change.PrevVersion)

	case wiki.ChangeDelete:
		return deletePageTx(tx, change.Page.ID)
	}

	return wiki.ErrInvalidAction
}

// CountItemsByStatus returns item totals grouped by status.
func (db *sqliteDb) CountItemsByStatus() (map[string]int, error) {
	return db.countGrouped(`SELECT status AS key, COUNT(*) AS total FROM ModerationItem GROUP BY status`)
}
