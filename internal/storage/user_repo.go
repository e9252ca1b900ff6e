package storage

import (
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/quillwiki/quillwiki/wiki"
)

func (db *sqliteDb) selectUser(stmt *sqlx.Stmt, args ...interface{}) (*wiki.User, error) {
	user := &wiki.User{}
	err := stmt.Get(user, args...)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return user, nil
}

// SelectUserByScreenname retrieves a user by their screen name. If withHash
// is true, the password hash is joined in for credential checks.
func (db *sqliteDb) SelectUserByScreenname(screenname string, withHash bool) (*wiki.User, error) {
	if withHash {
		return db.selectUser(db.SelectUserScreennameHashStmt, screenname)
	}
	return db.selectUser(db.SelectUserScreennameStmt, screenname)
}

// SelectUserByID retrieves a user by their ID.
func (db *sqliteDb) SelectUserByID(id int) (*wiki.User, error) {
	return db.selectUser(db.SelectUserByIDStmt, id)
}

// SelectAllUsers returns all registered users, newest first. The anonymous
// user is not a registered user and is excluded.
func (db *sqliteDb) SelectAllUsers() ([]*wiki.User, error) {
	users := []*wiki.User{}
	err := db.conn.Select(&users,
		`SELECT id, screenname, email, role, created_at FROM User
		 WHERE id != 0 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select all users")
	}
	return users, nil
}

// InsertUser inserts a new user and their password hash, and populates
// user.ID.
func (db *sqliteDb) InsertUser(user *wiki.User) (err error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin insert user")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("insert user rollback failed", slog.Any("error", rbErr))
			}
			return
		}
		err = tx.Commit()
	}()

	result, err := tx.Exec(`INSERT INTO User (email, screenname, role) VALUES (?, ?, ?)`,
		user.Email, user.ScreenName, user.Role)
	if isUniqueViolation(err, "User.screenname") {
		err = wiki.ErrUsernameTaken
		return err
	}
	if isUniqueViolation(err, "User.email") {
		err = wiki.ErrEmailTaken
		return err
	}
	if err != nil {
		err = errors.Wrap(err, "insert user")
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		err = errors.Wrap(err, "insert user id")
		return err
	}
	user.ID = int(id)

	_, err = tx.Exec(`INSERT INTO Password (user_id, passwordhash) VALUES (?, ?)`,
		user.ID, user.PasswordHash)
	if err != nil {
		err = errors.Wrap(err, "insert password")
	}
	return err
}

// UpdateUserRole updates a user's role.
func (db *sqliteDb) UpdateUserRole(id int, role string) error {
	result, err := db.conn.Exec(`UPDATE User SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return errors.Wrap(err, "update user role")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update user role rows")
	}
	if affected == 0 {
		return wiki.ErrNotFound
	}
	return nil
}

// CountUsersByRole returns user totals grouped by role, excluding anonymous.
func (db *sqliteDb) CountUsersByRole() (map[string]int, error) {
	return db.countGrouped(`SELECT role AS key, COUNT(*) AS total FROM User WHERE id != 0 GROUP BY role`)
}
