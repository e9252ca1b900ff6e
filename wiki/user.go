package wiki

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role constants for user authorization.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// ValidRole reports whether s is a role that can be assigned to a user.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleModerator || s == RoleUser
}

// User represents an authenticated principal.
type User struct {
	Email        string    `db:"email"`
	ScreenName   string    `db:"screenname"`
	ID           int       `db:"id"`
	PasswordHash string    `db:"passwordhash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	RawPassword  string
	IPAddress    string
}

// IsAnonymous returns true if the user is not authenticated.
func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == 0
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsReviewer returns true if the user may act on the moderation queue.
func (u *User) IsReviewer() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleModerator)
}

// SetPasswordHash generates and sets the bcrypt hash for the user's password.
func (u *User) SetPasswordHash() error {
	rawHash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.MinCost)
	u.RawPassword = ""

	if err != nil {
		return err
	}

	u.PasswordHash = string(rawHash)
	return nil
}

// AnonymousUser returns an anonymous user with ID 0.
func AnonymousUser() *User {
	return &User{ID: 0}
}
