package repository

import "github.com/quillwiki/quillwiki/wiki"

// UserRepository defines the interface for user persistence operations.
// Role reads always hit the store so a role change is visible to the very
// next authorization check.
type UserRepository interface {
	// SelectUserByScreenname retrieves a user by their screen name.
	// If withHash is true, includes the password hash in the result.
	SelectUserByScreenname(screenname string, withHash bool) (*wiki.User, error)

	// SelectUserByID retrieves a user by their ID.
	SelectUserByID(id int) (*wiki.User, error)

	// SelectAllUsers returns all users except anonymous (id != 0), newest
	// first.
	SelectAllUsers() ([]*wiki.User, error)

	// InsertUser inserts a new user and populates user.ID with the new ID.
	InsertUser(user *wiki.User) error

	// UpdateUserRole updates a user's role.
	UpdateUserRole(id int, role string) error

	// CountUsersByRole returns user totals grouped by role, excluding the
	// anonymous user.
	CountUsersByRole() (map[string]int, error)
}
