package service_test

import (
	"errors"
	"testing"

	"github.com/quillwiki/quillwiki/testutil"
	"github.com/quillwiki/quillwiki/wiki"
)

func TestGetStats(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	admin := testutil.CreateTestUser(t, app, "admin", "admin@example.com", "hunter22boogaloo")
	author := testutil.CreateTestUser(t, app, "author", "author@example.com", "hunter22boogaloo")
	moderator := testutil.CreateTestUserWithRole(t, app, "mod", "mod@example.com", wiki.RoleModerator)

	testutil.CreateTestPage(t, app, author, "Stat Page One", "content one")
	testutil.CreateTestPage(t, app, author, "Stat Page Two", "content two")

	if _, err := app.Moderation.Submit(author, wiki.ModerationCreate, 0, "Queued Page", "content", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	rejected, err := app.Moderation.Submit(author, wiki.ModerationCreate, 0, "Another Queued Page", "content", "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := app.Moderation.Reject(moderator, rejected.ID, ""); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	t.Run("reviewers see totals by status and role", func(t *testing.T) {
		stats, err := app.Stats.GetStats(admin)
		if err != nil {
			t.Fatalf("GetStats failed: %v", err)
		}

		if stats.Pages[wiki.StatusPublished] != 2 {
			t.Errorf("expected 2 published pages, got %d", stats.Pages[wiki.StatusPublished])
		}
		if stats.TotalPages() != 2 {
			t.Errorf("expected 2 total pages, got %d", stats.TotalPages())
		}

		if stats.Users[wiki.RoleAdmin] != 1 || stats.Users[wiki.RoleUser] != 1 || stats.Users[wiki.RoleModerator] != 1 {
			t.Errorf("unexpected user counts: %v", stats.Users)
		}
		if stats.TotalUsers() != 3 {
			t.Errorf("expected 3 total users, got %d", stats.TotalUsers())
		}

		if stats.Moderation[wiki.ModerationPending] != 1 {
			t.Errorf("expected 1 pending item, got %d", stats.Moderation[wiki.ModerationPending])
		}
		if stats.Moderation[wiki.ModerationRejected] != 1 {
			t.Errorf("expected 1 rejected item, got %d", stats.Moderation[wiki.ModerationRejected])
		}
		if stats.TotalModeration() != 2 {
			t.Errorf("expected 2 total moderation items, got %d", stats.TotalModeration())
		}
	})

	t.Run("regular users are denied", func(t *testing.T) {
		if _, err := app.Stats.GetStats(author); !errors.Is(err, wiki.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("anonymous users are denied", func(t *testing.T) {
		if _, err := app.Stats.GetStats(testutil.AnonymousUser()); !errors.Is(err, wiki.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
