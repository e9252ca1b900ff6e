package storage

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/michaeljs1990/sqlitestore"
	"github.com/pkg/errors"
	"github.com/quillwiki/quillwiki/wiki"
	_ "modernc.org/sqlite"
)

// PreparedStatements holds the prepared SQL statements used for database
// queries. This struct is exported to allow reuse in test utilities.
type PreparedStatements struct {
	SelectPageBySlugStmt          *sqlx.Stmt
	SelectPublishedPageBySlugStmt *sqlx.Stmt
	SelectPageByIDStmt            *sqlx.Stmt
	SelectUserScreennameStmt      *sqlx.Stmt
	SelectUserScreennameHashStmt  *sqlx.Stmt
	SelectUserByIDStmt            *sqlx.Stmt
	SelectModerationItemStmt      *sqlx.Stmt
}

// InitializeStatements prepares all the SQL statements needed for database
// operations. This function is exported to allow reuse in test utilities.
func InitializeStatements(conn *sqlx.DB) (*PreparedStatements, error) {
	stmts := &PreparedStatements{}
	var err error

	pageQuery := `SELECT Page.id, slug, title, summary, markdown, html, author_id, status, version,
			Page.created_at, updated_at, User.screenname
		FROM Page JOIN User ON Page.author_id = User.id`

	stmts.SelectPageBySlugStmt, err = conn.Preparex(pageQuery + ` WHERE slug = ?`)
	if err != nil {
		return nil, err
	}

	stmts.SelectPublishedPageBySlugStmt, err = conn.Preparex(pageQuery + ` WHERE slug = ? AND status = 'published'`)
	if err != nil {
		return nil, err
	}

	stmts.SelectPageByIDStmt, err = conn.Preparex(pageQuery + ` WHERE Page.id = ?`)
	if err != nil {
		return nil, err
	}

	stmts.SelectUserScreennameStmt, err = conn.Preparex(
		`SELECT id, screenname, email, role, created_at FROM User WHERE screenname = ?`)
	if err != nil {
		return nil, err
	}

	stmts.SelectUserScreennameHashStmt, err = conn.Preparex(`
		SELECT id, screenname, email, role, created_at, passwordhash
		FROM User JOIN Password ON Password.user_id = User.id WHERE screenname = ?`)
	if err != nil {
		return nil, err
	}

	stmts.SelectUserByIDStmt, err = conn.Preparex(
		`SELECT id, screenname, email, role, created_at FROM User WHERE id = ?`)
	if err != nil {
		return nil, err
	}

	stmts.SelectModerationItemStmt, err = conn.Preparex(moderationQuery + ` WHERE m.id = ?`)
	if err != nil {
		return nil, err
	}

	return stmts, nil
}

// sqliteDb is the main database struct that embeds all repository
// functionality. Methods are defined in separate files:
//   - page_repo.go: Page and Revision operations
//   - moderation_repo.go: ModerationItem operations
//   - user_repo.go: User operations
//
// Session operations are handled by the embedded SqliteStore.
type sqliteDb struct {
	*sqlitestore.SqliteStore
	*PreparedStatements
	conn *sqlx.DB
}

// Init initializes the storage layer with an existing database connection
// and runtime config. The database connection should already have migrations
// applied via RunMigrations.
func Init(db *sqlx.DB, runtimeConfig *wiki.RuntimeConfig) (*sqliteDb, error) {
	var err error

	store := &sqliteDb{conn: db}
	store.SqliteStore, err = sqlitestore.NewSqliteStoreFromConnection(db, "sessions", "/", runtimeConfig.CookieExpiry, runtimeConfig.CookieSecret)
	if err != nil {
		return nil, errors.Wrap(err, "session store init")
	}

	store.PreparedStatements, err = InitializeStatements(db)
	if err != nil {
		return nil, errors.Wrap(err, "prepare statements")
	}

	return store, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure on the named column (e.g. "Page.slug").
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
