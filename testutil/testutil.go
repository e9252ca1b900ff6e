// Package testutil provides test utilities for quillwiki integration tests.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/microcosm-cc/bluemonday"
	"github.com/quillwiki/quillwiki/internal/storage"
	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/service"
	_ "modernc.org/sqlite"
)

// TestApp wires the full service stack against an in-memory database.
type TestApp struct {
	Pages         service.PageService
	Users         service.UserService
	Sessions      service.SessionService
	Rendering     service.RenderingService
	Moderation    service.ModerationService
	Stats         service.StatsService
	RuntimeConfig *wiki.RuntimeConfig
	DB            *sqlx.DB
}

// SetupTestApp creates a full application instance for integration tests.
func SetupTestApp(t *testing.T) (*TestApp, func()) {
	t.Helper()

	conn, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	// A :memory: database exists per connection; a second pool connection
	// would see an empty schema.
	conn.SetMaxOpenConns(1)

	if err := storage.RunMigrations(conn); err != nil {
		conn.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	runtimeConfig := &wiki.RuntimeConfig{
		CookieSecret:          []byte("test-secret-key-for-sessions-32b"),
		CookieExpiry:          86400,
		MinimumPasswordLength: 8,
		AllowSignups:          true,
		ModerationRequired:    true,
	}

	store, err := storage.Init(conn, runtimeConfig)
	if err != nil {
		conn.Close()
		t.Fatalf("failed to initialize storage: %v", err)
	}

	// Sanitizer matching production config
	bm := bluemonday.UGCPolicy()
	bm.AllowAttrs("class").Globally()
	bm.AllowAttrs("style").OnElements("ins", "del")
	bm.AllowAttrs("style").Matching(regexp.MustCompile(`^text-align:\s+(left|right|center);$`)).OnElements("td", "th")

	renderingService := service.NewRenderingService(bm)

	app := &TestApp{
		Pages:         service.NewPageService(store, renderingService),
		Users:         service.NewUserService(store, runtimeConfig),
		Sessions:      service.NewSessionService(store),
		Rendering:     renderingService,
		Moderation:    service.NewModerationService(store, store, renderingService),
		Stats:         service.NewStatsService(store, store, store),
		RuntimeConfig: runtimeConfig,
		DB:            conn,
	}

	cleanup := func() {
		conn.Close()
	}

	return app, cleanup
}

// CreateTestUser registers a user through the user service and returns it.
// The first user created in a fresh database becomes an admin.
func CreateTestUser(t *testing.T, app *TestApp, screenname, email, password string) *wiki.User {
	t.Helper()

	user := &wiki.User{
		ScreenName:  screenname,
		Email:       email,
		RawPassword: password,
	}

	if err := app.Users.PostUser(user); err != nil {
		t.Fatalf("failed to create user %s: %v", screenname, err)
	}

	return user
}

// CreateTestUserWithRole registers a user and assigns them a role directly,
// bypassing the admin-only service path.
func CreateTestUserWithRole(t *testing.T, app *TestApp, screenname, email, role string) *wiki.User {
	t.Helper()

	user := CreateTestUser(t, app, screenname, email, "hunter22boogaloo")
	if user.Role != role {
		if _, err := app.DB.Exec(`UPDATE User SET role = ? WHERE id = ?`, role, user.ID); err != nil {
			t.Fatalf("failed to assign role %s: %v", role, err)
		}
		user.Role = role
	}
	return user
}

// CreateTestPage publishes a page directly through the page service.
func CreateTestPage(t *testing.T, app *TestApp, author *wiki.User, title, markdown string) *wiki.Page {
	t.Helper()

	page, err := app.Pages.CreatePage(author, title, markdown, "")
	if err != nil {
		t.Fatalf("failed to create test page %q: %v", title, err)
	}
	return page
}

// RequestWithUser creates a request with a user context attached.
func RequestWithUser(r *http.Request, user *wiki.User) *http.Request {
	ctx := context.WithValue(r.Context(), wiki.UserKey, user)
	return r.WithContext(ctx)
}

// AnonymousUser returns an anonymous user for testing.
func AnonymousUser() *wiki.User {
	return &wiki.User{
		ID:         0,
		ScreenName: "Anonymous",
		IPAddress:  "127.0.0.1",
	}
}

// MakeTestRequest creates a test request with optional user context.
func MakeTestRequest(method, url string, user *wiki.User) *http.Request {
	req := httptest.NewRequest(method, url, nil)
	if user != nil {
		req = RequestWithUser(req, user)
	} else {
		req = RequestWithUser(req, AnonymousUser())
	}
	return req
}
