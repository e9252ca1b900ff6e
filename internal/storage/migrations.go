package storage

import (
	_ "embed"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// RunMigrations executes the database schema and any necessary migrations.
// This function is idempotent and safe to run multiple times.
func RunMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}

	// Migration: add the summary column to Revision for databases created
	// before summaries were snapshotted.
	var colExists int
	err := db.Get(&colExists, `SELECT COUNT(*) FROM pragma_table_info('Revision') WHERE name = 'summary'`)
	if err != nil {
		return errors.Wrap(err, "inspect Revision table")
	}
	if colExists == 0 {
		if _, err := db.Exec(`ALTER TABLE Revision ADD COLUMN summary TEXT NOT NULL DEFAULT ''`); err != nil {
			return errors.Wrap(err, "add Revision.summary")
		}
	}

	// Always ensure the anonymous user has an empty role. On new databases
	// the column DEFAULT is 'user', so this corrects it; on existing
	// databases it's a no-op.
	if _, err := db.Exec(`UPDATE User SET role = '' WHERE id = 0`); err != nil {
		return errors.Wrap(err, "reset anonymous role")
	}

	return nil
}
