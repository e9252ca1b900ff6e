package service

import (
	"bytes"
	"html"

	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/repository"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const excerptLength = 200

// PageService defines the interface for page operations.
type PageService interface {
	// GetPage retrieves a published page by its slug.
	GetPage(slug string) (*wiki.Page, error)

	// GetPageForEdit retrieves a page in any status by its slug.
	GetPageForEdit(slug string) (*wiki.Page, error)

	// GetPageByID retrieves a page in any status by its id.
	GetPageByID(id int) (*wiki.Page, error)

	// ListPages lists published pages, most recently updated first.
	ListPages() ([]*wiki.PageSummary, error)

	// Search runs a substring filter over published pages.
	Search(q wiki.SearchQuery) ([]*wiki.PageSummary, error)

	// CreatePage publishes a new page at version 1.
	CreatePage(author *wiki.User, title, markdown, summary string) (*wiki.Page, error)

	// EditPage publishes a new version of an existing page.
	EditPage(editor *wiki.User, pageID int, title, markdown, summary string) (*wiki.Page, error)

	// DeletePage removes a page and its revisions.
	DeletePage(actor *wiki.User, pageID int) error

	// GetRevisions lists a page's revisions, newest version first.
	GetRevisions(pageID int) ([]*wiki.Revision, error)

	// GetRevision retrieves a single revision by page and version.
	GetRevision(pageID, version int) (*wiki.Revision, error)

	// DiffRevisions renders an inline HTML diff between two versions of a
	// page.
	DiffRevisions(pageID, oldVersion, newVersion int) (string, error)
}

// pageService is the default implementation of PageService.
type pageService struct {
	repo      repository.PageRepository
	rendering RenderingService
}

// NewPageService creates a new PageService.
func NewPageService(repo repository.PageRepository, rendering RenderingService) PageService {
	return &pageService{
		repo:      repo,
		rendering: rendering,
	}
}

// GetPage retrieves a published page by its slug.
func (s *pageService) GetPage(slug string) (*wiki.Page, error) {
	return s.repo.SelectPublishedPageBySlug(slug)
}

// GetPageForEdit retrieves a page in any status by its slug.
func (s *pageService) GetPageForEdit(slug string) (*wiki.Page, error) {
	return s.repo.SelectPageBySlug(slug)
}

// GetPageByID retrieves a page in any status by its id.
func (s *pageService) GetPageByID(id int) (*wiki.Page, error) {
	return s.repo.SelectPageByID(id)
}

// ListPages lists published pages, most recently updated first.
func (s *pageService) ListPages() ([]*wiki.PageSummary, error) {
	summaries, err := s.repo.SelectAllPages()
	if err != nil {
		return nil, err
	}
	return s.fillExcerpts(summaries), nil
}

// Search runs a substring filter over published pages.
func (s *pageService) Search(q wiki.SearchQuery) ([]*wiki.PageSummary, error) {
	if q.IsEmpty() {
		return []*wiki.PageSummary{}, nil
	}
	if q.Limit <= 0 {
		q.Limit = wiki.SearchLimit
	}

	summaries, err := s.repo.SearchPages(q)
	if err != nil {
		return nil, err
	}
	return s.fillExcerpts(summaries), nil
}

// fillExcerpts replaces empty summaries with a plain-text excerpt of the
// page content. The raw markdown is dropped afterwards so listings stay
// lightweight.
func (s *pageService) fillExcerpts(summaries []*wiki.PageSummary) []*wiki.PageSummary {
	for _, sum := range summaries {
		if sum.Summary == "" {
			if excerpt, err := s.rendering.Excerpt(sum.Markdown, excerptLength); err == nil {
				sum.Summary = excerpt
			}
		}
		sum.Markdown = ""
	}
	return summaries
}

// CreatePage publishes a new page at version 1. The author must be
// authenticated; the slug is derived from the title and must not collide
// with an existing page.
func (s *pageService) CreatePage(author *wiki.User, title, markdown, summary string) (*wiki.Page, error) {
	if author.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}

	page, err := buildPage(s.rendering, author.ID, title, markdown, summary)
	if err != nil {
		return nil, err
	}

	if err := s.repo.InsertPage(page); err != nil {
		return nil, err
	}
	page.Author = author
	return page, nil
}

// EditPage publishes a new version of an existing page. The editor must be
// the page's author, a moderator, or an admin.
func (s *pageService) EditPage(editor *wiki.User, pageID int, title, markdown, summary string) (*wiki.Page, error) {
	current, err := s.repo.SelectPageByID(pageID)
	if err != nil {
		return nil, err
	}

	if !wiki.Authorize(editor, wiki.ActionEditPage, current) {
		if editor.IsAnonymous() {
			return nil, wiki.ErrNotAuthenticated
		}
		return nil, wiki.ErrPermissionDenied
	}

	updated, err := buildPage(s.rendering, editor.ID, title, markdown, summary)
	if err != nil {
		return nil, err
	}

	// The slug only moves when the title changed; an unchanged title keeps
	// the existing slug even if the slugging rules would now differ.
	if title == current.Title {
		updated.Slug = current.Slug
	}

	updated.ID = current.ID
	updated.AuthorID = current.AuthorID
	updated.EditorID = editor.ID
	updated.Status = current.Status
	updated.Version = current.Version + 1

	if err := s.repo.UpdatePage(updated, current.Version); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePage removes a page and its revisions. Requires a moderator or
// admin; authorship alone is not sufficient.
func (s *pageService) DeletePage(actor *wiki.User, pageID int) error {
	if actor.IsAnonymous() {
		return wiki.ErrNotAuthenticated
	}
	if !wiki.Authorize(actor, wiki.ActionDeletePage, nil) {
		return wiki.ErrPermissionDenied
	}

	if _, err := s.repo.SelectPageByID(pageID); err != nil {
		return err
	}
	return s.repo.DeletePage(pageID)
}

// GetRevisions lists a page's revisions, newest version first.
func (s *pageService) GetRevisions(pageID int) ([]*wiki.Revision, error) {
	return s.repo.SelectRevisions(pageID)
}

// GetRevision retrieves a single revision by page and version.
func (s *pageService) GetRevision(pageID, version int) (*wiki.Revision, error) {
	return s.repo.SelectRevision(pageID, version)
}

// DiffRevisions renders an inline HTML diff between two versions of a page.
func (s *pageService) DiffRevisions(pageID, oldVersion, newVersion int) (string, error) {
	oldRev, err := s.repo.SelectRevision(pageID, oldVersion)
	if err != nil {
		return "", err
	}
	newRev, err := s.repo.SelectRevision(pageID, newVersion)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldRev.Markdown, newRev.Markdown, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buff bytes.Buffer
	for _, diff := range diffs {
		text := html.EscapeString(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			buff.WriteString(`<ins style="background:#e6ffe6;">`)
			buff.WriteString(text)
			buff.WriteString(`</ins>`)
		case diffmatchpatch.DiffDelete:
			buff.WriteString(`<del style="background:#ffe6e6;">`)
			buff.WriteString(text)
			buff.WriteString(`</del>`)
		case diffmatchpatch.DiffEqual:
			buff.WriteString(`<span>`)
			buff.WriteString(text)
			buff.WriteString(`</span>`)
		}
	}

	return buff.String(), nil
}

// buildPage validates the proposed fields, derives the slug, and renders the
// content. The returned page is published at version 1; callers adjust
// id/version/status for edits.
func buildPage(rendering RenderingService, authorID int, title, markdown, summary string) (*wiki.Page, error) {
	if title == "" {
		return nil, wiki.ErrEmptyTitle
	}
	if markdown == "" {
		return nil, wiki.ErrEmptyContent
	}

	slug := wiki.Slugify(title)
	if slug == "" {
		return nil, wiki.ErrEmptySlug
	}

	rendered, err := rendering.Render(markdown)
	if err != nil {
		return nil, err
	}

	return &wiki.Page{
		Slug:     slug,
		Title:    title,
		Summary:  summary,
		Markdown: markdown,
		HTML:     rendered,
		AuthorID: authorID,
		Status:   wiki.StatusPublished,
		Version:  1,
	}, nil
}
