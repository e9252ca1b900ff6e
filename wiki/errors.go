package wiki

import "errors"

// Sentinel errors for wiki operations. Policy and state-precondition
// failures are computed locally and returned as these typed values; store
// failures are wrapped with context and surfaced unmodified.
var (
	ErrNotAuthenticated = errors.New("you must be logged in to perform this action")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
	ErrInvalidState     = errors.New("this item has already been reviewed")
	ErrEditConflict     = errors.New("this page was changed by someone else while you were editing")
	ErrDuplicateSlug    = errors.New("a page with this title already exists")
	ErrNotFound         = errors.New("not found")

	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrEmptySlug    = errors.New("title must contain at least one letter or number")

	ErrInvalidAction = errors.New("unknown moderation action")
	ErrInvalidRole   = errors.New("unknown role")

	ErrUsernameTaken     = errors.New("username already in use")
	ErrEmailTaken        = errors.New("email already in use")
	ErrPasswordTooShort  = errors.New("password too short")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUsernameNotFound  = errors.New("username not found")
	ErrBadUsername       = errors.New("username must only contain letters, numbers, -, or _")
	ErrEmptyUsername     = errors.New("username cannot be empty")
)
