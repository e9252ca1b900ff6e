package service_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quillwiki/quillwiki/testutil"
)

func TestSessionLifecycle(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)

	session, err := app.Sessions.GetCookie(req, "quillwiki-login")
	if err != nil {
		t.Fatalf("GetCookie failed: %v", err)
	}
	if session == nil {
		t.Fatal("expected a fresh session for a cookieless request")
	}
	if !session.IsNew {
		t.Error("expected a new session")
	}

	session.Options.MaxAge = app.RuntimeConfig.CookieExpiry
	session.Values["username"] = "sessiontester"

	rw := httptest.NewRecorder()
	if err := app.Sessions.SaveCookie(req, rw, session); err != nil {
		t.Fatalf("SaveCookie failed: %v", err)
	}
	cookies := rw.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected SaveCookie to set a cookie")
	}

	t.Run("saved session round-trips", func(t *testing.T) {
		next := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			next.AddCookie(c)
		}

		loaded, err := app.Sessions.GetCookie(next, "quillwiki-login")
		if err != nil {
			t.Fatalf("GetCookie failed: %v", err)
		}
		if loaded.IsNew {
			t.Error("expected the persisted session to be found")
		}
		if got, _ := loaded.Values["username"].(string); got != "sessiontester" {
			t.Errorf("expected stored username, got %q", got)
		}
	})

	t.Run("delete expires the cookie", func(t *testing.T) {
		next := httptest.NewRequest(http.MethodPost, "/user/logout", nil)
		for _, c := range cookies {
			next.AddCookie(c)
		}

		loaded, err := app.Sessions.GetCookie(next, "quillwiki-login")
		if err != nil {
			t.Fatalf("GetCookie failed: %v", err)
		}

		rw := httptest.NewRecorder()
		if err := app.Sessions.DeleteCookie(next, rw, loaded); err != nil {
			t.Fatalf("DeleteCookie failed: %v", err)
		}
		if rw.Header().Get("Set-Cookie") == "" {
			t.Error("expected DeleteCookie to rewrite the cookie header")
		}
	})
}
