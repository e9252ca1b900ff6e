package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/quillwiki/quillwiki/testutil"
	"github.com/quillwiki/quillwiki/wiki"
)

func TestCreatePage(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")

	t.Run("publishes at version 1", func(t *testing.T) {
		page, err := app.Pages.CreatePage(author, "My First Page", "# Hello\n\nSome **bold** text.", "")
		if err != nil {
			t.Fatalf("CreatePage failed: %v", err)
		}
		if page.Slug != "my-first-page" {
			t.Errorf("expected slug 'my-first-page', got %q", page.Slug)
		}
		if page.Version != 1 {
			t.Errorf("expected version 1, got %d", page.Version)
		}
		if page.Status != wiki.StatusPublished {
			t.Errorf("expected status published, got %q", page.Status)
		}
		if !strings.Contains(page.HTML, "<strong>bold</strong>") {
			t.Errorf("expected rendered HTML, got %q", page.HTML)
		}
	})

	t.Run("anonymous users cannot create", func(t *testing.T) {
		_, err := app.Pages.CreatePage(testutil.AnonymousUser(), "Nope", "content", "")
		if !errors.Is(err, wiki.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		_, err := app.Pages.CreatePage(author, "", "content", "")
		if !errors.Is(err, wiki.ErrEmptyTitle) {
			t.Errorf("expected ErrEmptyTitle, got %v", err)
		}
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		_, err := app.Pages.CreatePage(author, "A Title", "", "")
		if !errors.Is(err, wiki.ErrEmptyContent) {
			t.Errorf("expected ErrEmptyContent, got %v", err)
		}
	})

	t.Run("title with no sluggable characters is rejected", func(t *testing.T) {
		_, err := app.Pages.CreatePage(author, "!!!", "content", "")
		if !errors.Is(err, wiki.ErrEmptySlug) {
			t.Errorf("expected ErrEmptySlug, got %v", err)
		}
	})

	t.Run("colliding titles are rejected", func(t *testing.T) {
		_, err := app.Pages.CreatePage(author, "My First Page", "different content", "")
		if !errors.Is(err, wiki.ErrDuplicateSlug) {
			t.Errorf("expected ErrDuplicateSlug, got %v", err)
		}
	})
}

func TestEditPage(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	// First user is promoted to admin, so create one before the test users.
	testutil.CreateTestUser(t, app, "firstadmin", "firstadmin@example.com", "hunter22boogaloo")
	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	stranger := testutil.CreateTestUser(t, app, "stranger", "stranger@example.com", "hunter22boogaloo")
	moderator := testutil.CreateTestUserWithRole(t, app, "mod", "mod@example.com", wiki.RoleModerator)

	page := testutil.CreateTestPage(t, app, author, "Editable Page", "original content")

	t.Run("author can edit their own page", func(t *testing.T) {
		updated, err := app.Pages.EditPage(author, page.ID, "Editable Page", "revised content", "")
		if err != nil {
			t.Fatalf("EditPage failed: %v", err)
		}
		if updated.Version != 2 {
			t.Errorf("expected version 2, got %d", updated.Version)
		}
		if updated.Slug != "editable-page" {
			t.Errorf("expected slug preserved, got %q", updated.Slug)
		}
	})

	t.Run("changing the title moves the slug", func(t *testing.T) {
		updated, err := app.Pages.EditPage(author, page.ID, "Renamed Page", "revised again", "")
		if err != nil {
			t.Fatalf("EditPage failed: %v", err)
		}
		if updated.Slug != "renamed-page" {
			t.Errorf("expected slug 'renamed-page', got %q", updated.Slug)
		}
		if _, err := app.Pages.GetPage("renamed-page"); err != nil {
			t.Errorf("expected page reachable under new slug: %v", err)
		}
	})

	t.Run("other users cannot edit", func(t *testing.T) {
		_, err := app.Pages.EditPage(stranger, page.ID, "Renamed Page", "hijacked", "")
		if !errors.Is(err, wiki.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("moderators can edit any page", func(t *testing.T) {
		updated, err := app.Pages.EditPage(moderator, page.ID, "Renamed Page", "moderated content", "")
		if err != nil {
			t.Fatalf("EditPage failed: %v", err)
		}
		// Authorship stays with the original author.
		if updated.AuthorID != author.ID {
			t.Errorf("expected author %d preserved, got %d", author.ID, updated.AuthorID)
		}
	})

	t.Run("anonymous users cannot edit", func(t *testing.T) {
		_, err := app.Pages.EditPage(testutil.AnonymousUser(), page.ID, "Renamed Page", "anon", "")
		if !errors.Is(err, wiki.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("missing page is reported", func(t *testing.T) {
		_, err := app.Pages.EditPage(author, 99999, "Ghost", "content", "")
		if !errors.Is(err, wiki.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeletePage(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	testutil.CreateTestUser(t, app, "firstadmin", "firstadmin@example.com", "hunter22boogaloo")
	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	moderator := testutil.CreateTestUserWithRole(t, app, "mod", "mod@example.com", wiki.RoleModerator)

	page := testutil.CreateTestPage(t, app, author, "Short-Lived", "content")

	t.Run("authorship alone is not enough", func(t *testing.T) {
		err := app.Pages.DeletePage(author, page.ID)
		if !errors.Is(err, wiki.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("moderator deletes page and revisions", func(t *testing.T) {
		if err := app.Pages.DeletePage(moderator, page.ID); err != nil {
			t.Fatalf("DeletePage failed: %v", err)
		}

		if _, err := app.Pages.GetPage("short-lived"); !errors.Is(err, wiki.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		revisions, err := app.Pages.GetRevisions(page.ID)
		if err != nil {
			t.Fatalf("GetRevisions failed: %v", err)
		}
		if len(revisions) != 0 {
			t.Errorf("expected revisions purged, got %d", len(revisions))
		}
	})

	t.Run("deleting a missing page is reported", func(t *testing.T) {
		if err := app.Pages.DeletePage(moderator, page.ID); !errors.Is(err, wiki.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSearch(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	testutil.CreateTestPage(t, app, author, "Gardening", "How to grow tomatoes in small spaces.")
	testutil.CreateTestPage(t, app, author, "Cooking", "Tomato sauce from scratch.")
	testutil.CreateTestPage(t, app, author, "Astronomy", "Observing the night sky.")

	t.Run("matches titles and content", func(t *testing.T) {
		results, err := app.Pages.Search(wiki.SearchQuery{Text: "tomato"})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("blank query returns nothing", func(t *testing.T) {
		results, err := app.Pages.Search(wiki.SearchQuery{Text: "   "})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results for blank query, got %d", len(results))
		}
	})

	t.Run("author filter narrows results", func(t *testing.T) {
		results, err := app.Pages.Search(wiki.SearchQuery{Text: "tomato", Author: "nobody"})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results for unknown author, got %d", len(results))
		}
	})

	t.Run("results carry excerpts instead of raw markdown", func(t *testing.T) {
		results, err := app.Pages.Search(wiki.SearchQuery{Text: "night sky"})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Summary == "" {
			t.Error("expected an excerpt to be filled in")
		}
		if results[0].Markdown != "" {
			t.Error("expected raw markdown to be dropped from listings")
		}
	})
}

func TestListPages(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	testutil.CreateTestPage(t, app, author, "First", "alpha content")
	testutil.CreateTestPage(t, app, author, "Second", "beta content")

	summaries, err := app.Pages.ListPages()
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(summaries))
	}
	for _, sum := range summaries {
		if sum.Summary == "" {
			t.Errorf("expected excerpt for %q", sum.Title)
		}
		if sum.AuthorName != "author" {
			t.Errorf("expected author name joined in, got %q", sum.AuthorName)
		}
	}
}

func TestDiffRevisions(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	page := testutil.CreateTestPage(t, app, author, "Diffable", "the quick brown fox")

	if _, err := app.Pages.EditPage(author, page.ID, "Diffable", "the quick red fox", ""); err != nil {
		t.Fatalf("EditPage failed: %v", err)
	}

	diff, err := app.Pages.DiffRevisions(page.ID, 1, 2)
	if err != nil {
		t.Fatalf("DiffRevisions failed: %v", err)
	}
	if !strings.Contains(diff, "<ins") || !strings.Contains(diff, "red") {
		t.Errorf("expected insertion markup in diff, got %q", diff)
	}
	if !strings.Contains(diff, "<del") || !strings.Contains(diff, "brown") {
		t.Errorf("expected deletion markup in diff, got %q", diff)
	}

	t.Run("missing revision is reported", func(t *testing.T) {
		if _, err := app.Pages.DiffRevisions(page.ID, 1, 99); !errors.Is(err, wiki.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGetRevisions(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	page := testutil.CreateTestPage(t, app, author, "Versioned", "v1 content")

	if _, err := app.Pages.EditPage(author, page.ID, "Versioned", "v2 content", ""); err != nil {
		t.Fatalf("EditPage failed: %v", err)
	}
	if _, err := app.Pages.EditPage(author, page.ID, "Versioned", "v3 content", ""); err != nil {
		t.Fatalf("EditPage failed: %v", err)
	}

	revisions, err := app.Pages.GetRevisions(page.ID)
	if err != nil {
		t.Fatalf("GetRevisions failed: %v", err)
	}
	if len(revisions) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(revisions))
	}
	for i, want := range []int{3, 2, 1} {
		if revisions[i].Version != want {
			t.Errorf("expected revisions newest first, got version %d at index %d", revisions[i].Version, i)
		}
	}

	rev, err := app.Pages.GetRevision(page.ID, 2)
	if err != nil {
		t.Fatalf("GetRevision failed: %v", err)
	}
	if rev.Markdown != "v2 content" {
		t.Errorf("expected v2 snapshot, got %q", rev.Markdown)
	}
}
