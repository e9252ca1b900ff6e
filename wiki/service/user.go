package service

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService defines the interface for user management operations.
type UserService interface {
	// PostUser creates a new user after validation.
	PostUser(user *wiki.User) error

	// CheckUserPassword verifies a user's password.
	CheckUserPassword(user *wiki.User) error

	// GetUserByScreenName retrieves a user by their screen name.
	GetUserByScreenName(screenname string) (*wiki.User, error)

	// GetUserByID retrieves a user by their ID. The result always reflects
	// the latest committed role.
	GetUserByID(id int) (*wiki.User, error)

	// GetAllUsers returns all registered users (excluding anonymous).
	GetAllUsers() ([]*wiki.User, error)

	// SetUserRole changes another user's role. Only admins may change roles,
	// and no actor may change their own.
	SetUserRole(actingUser *wiki.User, targetID int, role string) error
}

// userService is the default implementation of UserService.
type userService struct {
	repo          repository.UserRepository
	runtimeConfig *wiki.RuntimeConfig
}

// NewUserService creates a new UserService. The runtime config is read live
// so password policy changes apply without a restart.
func NewUserService(repo repository.UserRepository, runtimeConfig *wiki.RuntimeConfig) UserService {
	return &userService{
		repo:          repo,
		runtimeConfig: runtimeConfig,
	}
}

// PostUser creates a new user after validation.
// If the newly created user has ID 1, they are automatically promoted to
// admin.
func (s *userService) PostUser(user *wiki.User) error {
	if len(user.ScreenName) == 0 {
		return wiki.ErrEmptyUsername
	}

	matched, err := regexp.MatchString(`^[\p{L}0-9-_]+$`, user.ScreenName)
	if err != nil {
		return err
	}

	if !matched {
		return wiki.ErrBadUsername
	}

	if len(user.RawPassword) < s.runtimeConfig.MinimumPasswordLength {
		return errors.New(wiki.ErrPasswordTooShort.Error() + fmt.Sprintf(" (must be %d characters long)", s.runtimeConfig.MinimumPasswordLength))
	}

	err = user.SetPasswordHash()
	if err != nil {
		return err
	}

	user.Role = wiki.RoleUser
	if err := s.repo.InsertUser(user); err != nil {
		return err
	}

	// Promote first registered user to admin
	if user.ID == 1 {
		if err := s.repo.UpdateUserRole(1, wiki.RoleAdmin); err != nil {
			return err
		}
		user.Role = wiki.RoleAdmin
	}

	return nil
}

// CheckUserPassword verifies a user's password.
func (s *userService) CheckUserPassword(u *wiki.User) error {
	dbUser, err := s.repo.SelectUserByScreenname(u.ScreenName, true)
	if err != nil {
		if errors.Is(err, wiki.ErrNotFound) {
			return wiki.ErrUsernameNotFound
		}
		return err
	}

	err = bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(u.RawPassword))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return wiki.ErrIncorrectPassword
	}

	return err
}

// GetUserByScreenName retrieves a user by their screen name.
func (s *userService) GetUserByScreenName(screenname string) (*wiki.User, error) {
	dbUser, err := s.repo.SelectUserByScreenname(screenname, false)
	if err != nil {
		if errors.Is(err, wiki.ErrNotFound) {
			return nil, wiki.ErrUsernameNotFound
		}
		return nil, err
	}

	return dbUser, nil
}

// GetUserByID retrieves a user by their ID.
func (s *userService) GetUserByID(id int) (*wiki.User, error) {
	return s.repo.SelectUserByID(id)
}

// GetAllUsers returns all registered users (excluding anonymous).
func (s *userService) GetAllUsers() ([]*wiki.User, error) {
	return s.repo.SelectAllUsers()
}

// SetUserRole changes a user's role. The decision is delegated to the
// permission policy: only admins may change roles, and never their own.
func (s *userService) SetUserRole(actingUser *wiki.User, targetID int, role string) error {
	if actingUser.IsAnonymous() {
		return wiki.ErrNotAuthenticated
	}
	if !wiki.ValidRole(role) {
		return wiki.ErrInvalidRole
	}

	target, err := s.repo.SelectUserByID(targetID)
	if err != nil {
		return err
	}

	if !wiki.Authorize(actingUser, wiki.ActionChangeRole, target) {
		return wiki.ErrPermissionDenied
	}
	return s.repo.UpdateUserRole(targetID, role)
}
