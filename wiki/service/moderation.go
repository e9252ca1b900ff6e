package service

import (
	"database/sql"

	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/repository"
)

// ModerationService governs proposed page changes from submission through
// review. Items enter as pending and leave exactly once, as approved or
// rejected; approval materializes the proposed change onto the page model in
// the same store transaction as the status flip.
type ModerationService interface {
	// Submit enqueues a proposed change. Any authenticated user may submit;
	// edit/delete proposals must reference an existing page.
	Submit(author *wiki.User, actionType string, targetPageID int, title, markdown, summary string) (*wiki.ModerationItem, error)

	// Approve transitions a pending item to approved and applies the
	// proposed change. Requires a moderator or admin.
	Approve(actor *wiki.User, itemID int, notes string) error

	// Reject transitions a pending item to rejected. No page is touched.
	// Requires a moderator or admin.
	Reject(actor *wiki.User, itemID int, notes string) error

	// GetQueue lists all items for reviewers, newest first.
	GetQueue(actor *wiki.User) ([]*wiki.ModerationItem, error)

	// GetItem retrieves one item. Reviewers may read any item; other users
	// only their own submissions.
	GetItem(actor *wiki.User, itemID int) (*wiki.ModerationItem, error)

	// GetOwnItems lists the acting user's submissions, newest first.
	GetOwnItems(author *wiki.User) ([]*wiki.ModerationItem, error)
}

// moderationService is the default implementation of ModerationService.
type moderationService struct {
	repo      repository.ModerationRepository
	pages     repository.PageRepository
	rendering RenderingService
}

// NewModerationService creates a new ModerationService.
func NewModerationService(repo repository.ModerationRepository, pages repository.PageRepository, rendering RenderingService) ModerationService {
	return &moderationService{
		repo:      repo,
		pages:     pages,
		rendering: rendering,
	}
}

// Submit enqueues a proposed change as a pending moderation item.
func (s *moderationService) Submit(author *wiki.User, actionType string, targetPageID int, title, markdown, summary string) (*wiki.ModerationItem, error) {
	if author.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}

	item := &wiki.ModerationItem{
		ActionType:       actionType,
		ProposedTitle:    title,
		ProposedMarkdown: markdown,
		ProposedSummary:  summary,
		AuthorID:         author.ID,
		Status:           wiki.ModerationPending,
	}

	switch actionType {
	case wiki.ModerationCreate:
		if title == "" {
			return nil, wiki.ErrEmptyTitle
		}
		if markdown == "" {
			return nil, wiki.ErrEmptyContent
		}
		if wiki.Slugify(title) == "" {
			return nil, wiki.ErrEmptySlug
		}

	case wiki.ModerationEdit:
		if title == "" {
			return nil, wiki.ErrEmptyTitle
		}
		if markdown == "" {
			return nil, wiki.ErrEmptyContent
		}
		if _, err := s.pages.SelectPageByID(targetPageID); err != nil {
			return nil, err
		}
		item.PageID = sql.NullInt64{Int64: int64(targetPageID), Valid: true}

	case wiki.ModerationDelete:
		if _, err := s.pages.SelectPageByID(targetPageID); err != nil {
			return nil, err
		}
		item.PageID = sql.NullInt64{Int64: int64(targetPageID), Valid: true}

	default:
		return nil, wiki.ErrInvalidAction
	}

	if err := s.repo.InsertItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Approve transitions a pending item to approved and materializes the
// proposed change. The status flip and the page mutation commit together or
// not at all; losing a review race surfaces as wiki.ErrInvalidState.
func (s *moderationService) Approve(actor *wiki.User, itemID int, notes string) error {
	item, err := s.authorizeReview(actor, itemID)
	if err != nil {
		return err
	}

	change, err := s.materialization(item)
	if err != nil {
		return err
	}

	return s.repo.ReviewItem(itemID, &wiki.Review{
		Status:      wiki.ModerationApproved,
		ModeratorID: actor.ID,
		Notes:       notes,
		Apply:       change,
	})
}

// Reject transitions a pending item to rejected without touching any page.
func (s *moderationService) Reject(actor *wiki.User, itemID int, notes string) error {
	if _, err := s.authorizeReview(actor, itemID); err != nil {
		return err
	}

	return s.repo.ReviewItem(itemID, &wiki.Review{
		Status:      wiki.ModerationRejected,
		ModeratorID: actor.ID,
		Notes:       notes,
	})
}

// authorizeReview loads the item and checks the review preconditions. The
// pending check here is advisory; the conditional update in ReviewItem is
// the final arbiter under concurrency.
func (s *moderationService) authorizeReview(actor *wiki.User, itemID int) (*wiki.ModerationItem, error) {
	if actor.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}

	item, err := s.repo.SelectItem(itemID)
	if err != nil {
		return nil, err
	}

	if !wiki.Authorize(actor, wiki.ActionReview, item) {
		return nil, wiki.ErrPermissionDenied
	}
	if !item.IsPending() {
		return nil, wiki.ErrInvalidState
	}
	return item, nil
}

// materialization builds the page mutation an approval must apply. Edit and
// delete items whose target page has vanished since submission surface
// wiki.ErrNotFound and leave the item pending for the caller to decide.
func (s *moderationService) materialization(item *wiki.ModerationItem) (*wiki.PageChange, error) {
	switch item.ActionType {
	case wiki.ModerationCreate:
		page, err := buildPage(s.rendering, item.AuthorID, item.ProposedTitle, item.ProposedMarkdown, item.ProposedSummary)
		if err != nil {
			return nil, err
		}
		return &wiki.PageChange{Op: wiki.ChangeCreate, Page: page}, nil

	case wiki.ModerationEdit:
		targetID, ok := item.TargetPageID()
		if !ok {
			return nil, wiki.ErrNotFound
		}
		current, err := s.pages.SelectPageByID(targetID)
		if err != nil {
			return nil, err
		}

		updated, err := buildPage(s.rendering, item.AuthorID, item.ProposedTitle, item.ProposedMarkdown, item.ProposedSummary)
		if err != nil {
			return nil, err
		}
		if item.ProposedTitle == current.Title {
			updated.Slug = current.Slug
		}
		updated.ID = current.ID
		updated.AuthorID = current.AuthorID
		updated.EditorID = item.AuthorID
		updated.Status = current.Status
		updated.Version = current.Version + 1

		return &wiki.PageChange{Op: wiki.ChangeEdit, Page: updated, PrevVersion: current.Version}, nil

	case wiki.ModerationDelete:
		targetID, ok := item.TargetPageID()
		if !ok {
			return nil, wiki.ErrNotFound
		}
		if _, err := s.pages.SelectPageByID(targetID); err != nil {
			return nil, err
		}
		return &wiki.PageChange{Op: wiki.ChangeDelete, Page: &wiki.Page{ID: targetID}}, nil
	}

	return nil, wiki.ErrInvalidAction
}

// GetQueue lists all items for reviewers, newest first.
func (s *moderationService) GetQueue(actor *wiki.User) ([]*wiki.ModerationItem, error) {
	if actor.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}
	if !wiki.Authorize(actor, wiki.ActionReview, nil) {
		return nil, wiki.ErrPermissionDenied
	}
	return s.repo.SelectQueue()
}

// GetItem retrieves one item, visible to reviewers and the submitter.
func (s *moderationService) GetItem(actor *wiki.User, itemID int) (*wiki.ModerationItem, error) {
	if actor.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}

	item, err := s.repo.SelectItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.AuthorID != actor.ID && !wiki.Authorize(actor, wiki.ActionReview, item) {
		return nil, wiki.ErrPermissionDenied
	}
	return item, nil
}

// GetOwnItems lists the acting user's submissions, newest first.
func (s *moderationService) GetOwnItems(author *wiki.User) ([]*wiki.ModerationItem, error) {
	if author.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}
	return s.repo.SelectItemsByAuthor(author.ID)
}
