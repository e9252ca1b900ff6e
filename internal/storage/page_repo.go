package storage

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/quillwiki/quillwiki/wiki"
)

// pageSummaryQuery selects the columns backing wiki.PageSummary. The raw
// markdown rides along so the service layer can derive excerpts.
const pageSummaryQuery = `SELECT Page.id, slug, title, Page.summary, markdown, version, updated_at, User.screenname
	FROM Page JOIN User ON Page.author_id = User.id`

// pageResult joins the author's screen name onto the page row.
type pageResult struct {
	wiki.Page
	ScreenName string `db:"screenname"`
}

func (db *sqliteDb) selectPage(stmt *sqlx.Stmt, args ...interface{}) (*wiki.Page, error) {
	result := &pageResult{}
	err := stmt.Get(result, args...)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select page")
	}

	page := result.Page
	page.Author = &wiki.User{ID: page.AuthorID, ScreenName: result.ScreenName}
	return &page, nil
}

// SelectPageBySlug retrieves a page in any status by its slug.
func (db *sqliteDb) SelectPageBySlug(slug string) (*wiki.Page, error) {
	return db.selectPage(db.SelectPageBySlugStmt, slug)
}

// SelectPublishedPageBySlug retrieves a published page by its slug.
func (db *sqliteDb) SelectPublishedPageBySlug(slug string) (*wiki.Page, error) {
	return db.selectPage(db.SelectPublishedPageBySlugStmt, slug)
}

// SelectPageByID retrieves a page in any status by its id.
func (db *sqliteDb) SelectPageByID(id int) (*wiki.Page, error) {
	return db.selectPage(db.SelectPageByIDStmt, id)
}

// SelectAllPages lists published pages, most recently updated first.
func (db *sqliteDb) SelectAllPages() ([]*wiki.PageSummary, error) {
	summaries := []*wiki.PageSummary{}
	err := db.conn.Select(&summaries, pageSummaryQuery+
		` WHERE status = 'published' ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select all pages")
	}
	return summaries, nil
}

// SearchPages runs a substring filter over published pages. Matching is
// case-insensitive for ASCII, courtesy of SQLite's LIKE.
func (db *sqliteDb) SearchPages(q wiki.SearchQuery) ([]*wiki.PageSummary, error) {
	query := pageSummaryQuery + ` WHERE status = 'published'`
	args := []interface{}{}

	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		query += ` AND (title LIKE ? ESCAPE '\' OR markdown LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	if q.Author != "" {
		query += ` AND User.screenname = ?`
		args = append(args, q.Author)
	}
	if !q.From.IsZero() {
		query += ` AND Page.created_at >= ?`
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		query += ` AND Page.created_at <= ?`
		args = append(args, q.To)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = wiki.SearchLimit
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	summaries := []*wiki.PageSummary{}
	if err := db.conn.Select(&summaries, query, args...); err != nil {
		return nil, errors.Wrap(err, "search pages")
	}
	return summaries, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// InsertPage inserts a new page at version 1 together with its first
// revision.
func (db *sqliteDb) InsertPage(page *wiki.Page) (err error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin insert page")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("insert page rollback failed", slog.Any("error", rbErr))
			}
			return
		}
		err = tx.Commit()
	}()

	err = insertPageTx(tx, page)
	return err
}

// UpdatePage applies a new version of the page and snapshots it as a
// revision, but only if the stored row still carries prevVersion.
func (db *sqliteDb) UpdatePage(page *wiki.Page, prevVersion int) (err error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin update page")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("update page rollback failed", slog.Any("error", rbErr))
			}
			return
		}
		err = tx.Commit()
	}()

	err = updatePageTx(tx, page, prevVersion)
	return err
}

// DeletePage removes a page and purges its revisions. Moderation items that
// referenced the page keep their row but lose the page link.
func (db *sqliteDb) DeletePage(id int) (err error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin delete page")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("delete page rollback failed", slog.Any("error", rbErr))
			}
			return
		}
		err = tx.Commit()
	}()

	err = deletePageTx(tx, id)
	return err
}

// SelectRevisions lists a page's revisions, newest version first.
func (db *sqliteDb) SelectRevisions(pageID int) ([]*wiki.Revision, error) {
	revisions := []*wiki.Revision{}
	err := db.conn.Select(&revisions,
		`SELECT id, page_id, version, title, summary, markdown, author_id, created_at
		 FROM Revision WHERE page_id = ? ORDER BY version DESC`, pageID)
	if err != nil {
		return nil, errors.Wrap(err, "select revisions")
	}
	return revisions, nil
}

// SelectRevision retrieves a single revision by page and version.
func (db *sqliteDb) SelectRevision(pageID, version int) (*wiki.Revision, error) {
	revision := &wiki.Revision{}
	err := db.conn.Get(revision,
		`SELECT id, page_id, version, title, summary, markdown, author_id, created_at
		 FROM Revision WHERE page_id = ? AND version = ?`, pageID, version)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select revision")
	}
	return revision, nil
}

// CountPagesByStatus returns page totals grouped by lifecycle status.
func (db *sqliteDb) CountPagesByStatus() (map[string]int, error) {
	return db.countGrouped(`SELECT status AS key, COUNT(*) AS total FROM Page GROUP BY status`)
}

// countGrouped runs a two-column (key, total) aggregate into a map.
func (db *sqliteDb) countGrouped(query string, args ...interface{}) (map[string]int, error) {
	rows := []struct {
		Key   string `db:"key"`
		Total int    `db:"total"`
	}{}
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "count grouped")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Total
	}
	return counts, nil
}

// insertPageTx inserts the page row and its first revision. Shared with the
// moderation review transaction.
func insertPageTx(tx *sqlx.Tx, page *wiki.Page) error {
	result, err := tx.Exec(
		`INSERT INTO Page (slug, title, summary, markdown, html, author_id, status, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		page.Slug, page.Title, page.Summary, page.Markdown, page.HTML, page.AuthorID, page.Status)
	if isUniqueViolation(err, "Page.slug") {
		return wiki.ErrDuplicateSlug
	}
	if err != nil {
		return errors.Wrap(err, "insert page")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "insert page id")
	}
	page.ID = int(id)
	page.Version = 1

	return insertRevisionTx(tx, page)
}

// updatePageTx is the version-guarded page update plus revision snapshot.
// Shared with the moderation review transaction.
func updatePageTx(tx *sqlx.Tx, page *wiki.Page, prevVersion int) error {
	result, err := tx.Exec(
		`UPDATE Page SET slug = ?, title = ?, summary = ?, markdown = ?, html = ?,
			status = ?, version = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		page.Slug, page.Title, page.Summary, page.Markdown, page.HTML,
		page.Status, page.Version, page.ID, prevVersion)
	if isUniqueViolation(err, "Page.slug") {
		return wiki.ErrDuplicateSlug
	}
	if err != nil {
		return errors.Wrap(err, "update page")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update page rows")
	}
	if affected == 0 {
		// Either the page vanished or another writer bumped the version
		// first. Both mean this update must not apply.
		var exists int
		if err := tx.Get(&exists, `SELECT COUNT(*) FROM Page WHERE id = ?`, page.ID); err != nil {
			return errors.Wrap(err, "update page recheck")
		}
		if exists == 0 {
			return wiki.ErrNotFound
		}
		return wiki.ErrEditConflict
	}

	return insertRevisionTx(tx, page)
}

// deletePageTx purges a page, its revisions, and its moderation links.
func deletePageTx(tx *sqlx.Tx, id int) error {
	if _, err := tx.Exec(`DELETE FROM Revision WHERE page_id = ?`, id); err != nil {
		return errors.Wrap(err, "delete revisions")
	}
	if _, err := tx.Exec(`UPDATE ModerationItem SET page_id = NULL WHERE page_id = ?`, id); err != nil {
		return errors.Wrap(err, "unlink moderation items")
	}

	result, err := tx.Exec(`DELETE FROM Page WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete page")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete page rows")
	}
	if affected == 0 {
		return wiki.ErrNotFound
	}
	return nil
}

func insertRevisionTx(tx *sqlx.Tx, page *wiki.Page) error {
	authorID := page.EditorID
	if authorID == 0 {
		authorID = page.AuthorID
	}

	_, err := tx.Exec(
		`INSERT INTO Revision (page_id, version, title, summary, markdown, author_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		page.ID, page.Version, page.Title, page.Summary, page.Markdown, authorID)
	return errors.Wrap(err, "insert revision")
}
