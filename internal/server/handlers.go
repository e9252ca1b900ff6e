package server

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/quillwiki/quillwiki/wiki"
)

func (a *App) RegisterHandler(rw http.ResponseWriter, req *http.Request) {
	if !a.RuntimeConfig.AllowSignups {
		a.ErrorHandler(http.StatusForbidden, rw, req, errors.New("signups are disabled"))
		return
	}

	err := a.RenderTemplate(rw, "register.html", "index.html",
		map[string]interface{}{
			"Page":    wiki.NewStaticPage("Register"),
			"Context": req.Context()})
	check(err)
}

func (a *App) RegisterPostHandler(rw http.ResponseWriter, req *http.Request) {
	if !a.RuntimeConfig.AllowSignups {
		a.ErrorHandler(http.StatusForbidden, rw, req, errors.New("signups are disabled"))
		return
	}

	user := &wiki.User{}
	user.Email = req.PostFormValue("email")
	user.ScreenName = req.PostFormValue("screenname")
	user.RawPassword = req.PostFormValue("password")

	render := map[string]interface{}{
		"Page":           wiki.NewStaticPage("Register"),
		"calloutClasses": "qw-success",
		"calloutMessage": "Successfully registered!",
		"formClasses":    "hidden",
		"Context":        req.Context(),
	}

	// fill form with previously submitted values and display registration errors
	err := a.Users.PostUser(user)
	if err != nil {
		slog.Warn("registration failed", "category", "auth", "action", "register", "username", user.ScreenName, "reason", err.Error(), "ip", req.RemoteAddr)
		render["calloutMessage"] = err.Error()
		render["calloutClasses"] = "qw-error"
		render["formClasses"] = ""
		render["screennameValue"] = user.ScreenName
		render["emailValue"] = user.Email
	} else {
		slog.Info("user registered", "category", "auth", "action", "register", "username", user.ScreenName, "role", user.Role, "ip", req.RemoteAddr)
	}

	err = a.RenderTemplate(rw, "register.html", "index.html", render)
	check(err)
}

func (a *App) LoginHandler(rw http.ResponseWriter, req *http.Request) {
	render := map[string]interface{}{
		"Page":    wiki.NewStaticPage("Login"),
		"Context": req.Context(),
	}

	// Check if redirected here because login is required
	if req.URL.Query().Get("reason") == "login_required" {
		render["loginRequired"] = true
		render["referrerValue"] = req.URL.Query().Get("referrer")
	} else {
		render["referrerValue"] = req.Referer()
	}

	err := a.RenderTemplate(rw, "login.html", "index.html", render)
	check(err)
}

func (a *App) LoginPostHandler(rw http.ResponseWriter, req *http.Request) {
	user := &wiki.User{}
	user.ScreenName = req.PostFormValue("screenname")
	user.RawPassword = req.PostFormValue("password")
	referrer := req.PostFormValue("referrer")

	err := a.Users.CheckUserPassword(user)

	render := map[string]interface{}{
		"Page":           wiki.NewStaticPage("Login"),
		"calloutClasses": "qw-success",
		"calloutMessage": "Successfully logged in!",
		"formClasses":    "hidden",
		"Context":        req.Context(),
	}

	if err != nil {
		slog.Warn("login failed", "category", "auth", "action", "login", "username", user.ScreenName, "reason", err.Error(), "ip", req.RemoteAddr)
		render["calloutMessage"] = err.Error()
		render["calloutClasses"] = "qw-error"
		render["formClasses"] = ""
		render["screennameValue"] = user.ScreenName
		rw.WriteHeader(http.StatusUnauthorized)
		err = a.RenderTemplate(rw, "login.html", "index.html", render)
		check(err)
		return
	}

	session, err := a.Sessions.GetCookie(req, sessionCookieName)
	if err != nil {
		// GetCookie returns an error when the existing cookie can't be decoded
		// (e.g., signed with a different secret). In this case, it also returns
		// a new valid session we can use. Only fail if we didn't get a session.
		if session == nil {
			a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
			return
		}
		slog.Debug("existing session cookie invalid, creating new session", "error", err)
	}
	session.Options.MaxAge = a.RuntimeConfig.CookieExpiry
	session.Values["username"] = user.ScreenName
	err = a.Sessions.SaveCookie(req, rw, session)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	slog.Info("user logged in", "category", "auth", "action", "login", "username", user.ScreenName, "ip", req.RemoteAddr)

	if referrer == "" {
		referrer = "/"
	}
	http.Redirect(rw, req, referrer, http.StatusSeeOther)
}

func (a *App) LogoutPostHandler(rw http.ResponseWriter, req *http.Request) {
	session, err := a.Sessions.GetCookie(req, sessionCookieName)
	if err != nil {
		// If we can't decode the cookie, the user is effectively already
		// logged out.
		if session == nil {
			a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
			return
		}
		slog.Debug("logout with invalid session cookie, redirecting to home", "error", err)
		http.Redirect(rw, req, "/", http.StatusSeeOther)
		return
	}

	// Capture username before session is deleted
	username, _ := session.Values["username"].(string)

	err = a.Sessions.DeleteCookie(req, rw, session)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	slog.Info("user logged out", "category", "auth", "action", "logout", "username", username, "ip", req.RemoteAddr)
	http.Redirect(rw, req, "/", http.StatusSeeOther)
}

// HomeHandler lists published pages, most recently updated first.
func (a *App) HomeHandler(rw http.ResponseWriter, req *http.Request) {
	pages, err := a.Pages.ListPages()
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	err = a.RenderTemplate(rw, "home.html", "index.html", map[string]interface{}{
		"Page":    wiki.NewStaticPage("All Pages"),
		"Pages":   pages,
		"Context": req.Context()})
	check(err)
}

// SearchHandler runs a substring search over published pages. Supports
// advanced filters: author, from, and to (dates in 2006-01-02 form).
func (a *App) SearchHandler(rw http.ResponseWriter, req *http.Request) {
	params := req.URL.Query()

	query := wiki.SearchQuery{
		Text:   params.Get("q"),
		Author: params.Get("author"),
	}
	if from := params.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query.From = t
		}
	}
	if to := params.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Inclusive of the whole end day.
			query.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if query.Author != "" || !query.From.IsZero() || !query.To.IsZero() {
		query.Limit = wiki.AdvancedSearchLimit
	}

	results, err := a.Pages.Search(query)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	slog.Debug("search executed", "category", "page", "action", "search", "query", query.Text, "results", len(results))

	err = a.RenderTemplate(rw, "search.html", "index.html", map[string]interface{}{
		"Page":        wiki.NewStaticPage("Search"),
		"Results":     results,
		"queryValue":  query.Text,
		"authorValue": query.Author,
		"Context":     req.Context()})
	check(err)
}

// PageDispatcher routes page requests based on query parameters.
// URL scheme:
//   - /wiki/{slug} - view page (current version)
//   - /wiki/{slug}?revision=N - view version N
//   - /wiki/{slug}?edit - edit form
//   - /wiki/{slug}?history - revision history
//   - /wiki/{slug}?diff&old=N&new=M - diff between versions
//   - /wiki/{slug}?diff&old=N - diff from N to current
//   - POST /wiki/{slug} - save an edit (or preview)
//   - POST /wiki/{slug}?delete - delete the page
func (a *App) PageDispatcher(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	params := req.URL.Query()

	if req.Method == "POST" {
		if params.Has("delete") {
			a.handleDelete(rw, req, vars["slug"])
			return
		}
		a.handlePagePost(rw, req, vars["slug"])
		return
	}

	if params.Has("diff") {
		a.handleDiff(rw, req, vars["slug"], params)
		return
	}

	if params.Has("history") {
		a.handleHistory(rw, req, vars["slug"])
		return
	}

	if params.Has("edit") {
		a.handleEdit(rw, req, vars["slug"])
		return
	}

	a.handleView(rw, req, vars["slug"], params)
}

// handleView handles viewing a page or a specific version of it.
func (a *App) handleView(rw http.ResponseWriter, req *http.Request, slug string, params url.Values) {
	page, err := a.Pages.GetPage(slug)
	if errors.Is(err, wiki.ErrNotFound) {
		slog.Debug("page not found", "category", "page", "action", "view", "slug", slug)
		rw.WriteHeader(http.StatusNotFound)
		err = a.RenderTemplate(rw, "page_notfound.html", "index.html", map[string]interface{}{
			"Page":    wiki.NewStaticPage(slug),
			"Slug":    slug,
			"Context": req.Context()})
		check(err)
		return
	}
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	render := map[string]interface{}{
		"Page":    page,
		"HTML":    template.HTML(page.HTML),
		"Context": req.Context(),
	}

	// Viewing an old version renders the revision's markdown on the fly.
	if revisionStr := params.Get("revision"); revisionStr != "" {
		version, err := strconv.Atoi(revisionStr)
		if err != nil {
			a.ErrorHandler(http.StatusBadRequest, rw, req, err)
			return
		}
		if version != page.Version {
			revision, err := a.Pages.GetRevision(page.ID, version)
			if err != nil {
				a.ErrorHandler(http.StatusNotFound, rw, req, err)
				return
			}
			html, err := a.Rendering.Render(revision.Markdown)
			if err != nil {
				a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
				return
			}
			render["Revision"] = revision
			render["HTML"] = template.HTML(html)
			render["IsOldRevision"] = true
			render["CurrentVersion"] = page.Version
		}
	}

	slog.Debug("page viewed", "category", "page", "action", "view", "slug", slug)
	err = a.RenderTemplate(rw, "page.html", "index.html", render)
	check(err)
}

// handleHistory handles viewing revision history.
func (a *App) handleHistory(rw http.ResponseWriter, req *http.Request, slug string) {
	page, err := a.Pages.GetPageForEdit(slug)
	if err != nil {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}

	revisions, err := a.Pages.GetRevisions(page.ID)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	slog.Debug("page history viewed", "category", "page", "action", "history", "slug", slug)

	err = a.RenderTemplate(rw, "page_history.html", "index.html", map[string]interface{}{
		"Page":      wiki.NewStaticPage("History of " + page.Title),
		"Target":    page,
		"Revisions": revisions,
		"Context":   req.Context()})
	check(err)
}

// handleEdit shows the edit form. Anonymous users are sent to login first.
func (a *App) handleEdit(rw http.ResponseWriter, req *http.Request, slug string) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	page, err := a.Pages.GetPageForEdit(slug)
	if err != nil {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}

	err = a.RenderTemplate(rw, "page_edit.html", "index.html", map[string]interface{}{
		"Page":            page,
		"NeedsModeration": a.needsModeration(user),
		"Preview":         false,
		"Context":         req.Context()})
	check(err)
}

// handleDiff handles diff view between versions.
// Smart defaults:
//   - ?diff&old=N&new=M - explicit diff between N and M
//   - ?diff&old=N - diff from N to current
//   - ?diff - diff between the two most recent versions
func (a *App) handleDiff(rw http.ResponseWriter, req *http.Request, slug string, params url.Values) {
	page, err := a.Pages.GetPageForEdit(slug)
	if err != nil {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}

	newVersion := page.Version
	if newStr := params.Get("new"); newStr != "" {
		newVersion, err = strconv.Atoi(newStr)
		if err != nil {
			a.ErrorHandler(http.StatusBadRequest, rw, req, err)
			return
		}
	}

	oldVersion := newVersion - 1
	if oldStr := params.Get("old"); oldStr != "" {
		oldVersion, err = strconv.Atoi(oldStr)
		if err != nil {
			a.ErrorHandler(http.StatusBadRequest, rw, req, err)
			return
		}
	}
	if oldVersion < 1 {
		oldVersion = 1
	}

	diff, err := a.Pages.DiffRevisions(page.ID, oldVersion, newVersion)
	if err != nil {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}

	err = a.RenderTemplate(rw, "diff.html", "index.html", map[string]interface{}{
		"Page":       wiki.NewStaticPage(fmt.Sprintf("Diff of %s: v%d → v%d", page.Title, oldVersion, newVersion)),
		"Target":     page,
		"OldVersion": oldVersion,
		"NewVersion": newVersion,
		"DiffString": template.HTML(diff),
		"Context":    req.Context()})
	check(err)
}

// NewPageHandler shows the creation form.
func (a *App) NewPageHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	err := a.RenderTemplate(rw, "page_new.html", "index.html", map[string]interface{}{
		"Page":            wiki.NewStaticPage("New Page"),
		"NeedsModeration": a.needsModeration(user),
		"Preview":         false,
		"Context":         req.Context()})
	check(err)
}

// NewPagePostHandler creates a page, either directly or through the
// moderation queue depending on the runtime toggle and the author's role.
func (a *App) NewPagePostHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	title := req.PostFormValue("title")
	body := req.PostFormValue("body")
	summary := req.PostFormValue("summary")

	if req.PostFormValue("action") == "preview" {
		a.previewHandler(rw, req, "page_new.html", title, body, summary)
		return
	}

	if a.needsModeration(user) {
		item, err := a.Moderation.Submit(user, wiki.ModerationCreate, 0, title, body, summary)
		if err != nil {
			a.formError(rw, req, "page_new.html", err, title, body, summary)
			return
		}
		slog.Info("page creation submitted for review", "category", "moderation", "action", "submit", "item", item.ID, "username", user.ScreenName)
		http.Redirect(rw, req, "/moderation/submissions?msg=Submitted+for+review", http.StatusSeeOther)
		return
	}

	page, err := a.Pages.CreatePage(user, title, body, summary)
	if err != nil {
		a.formError(rw, req, "page_new.html", err, title, body, summary)
		return
	}

	slog.Info("page created", "category", "page", "action", "create", "slug", page.Slug, "username", user.ScreenName)
	http.Redirect(rw, req, "/wiki/"+url.PathEscape(page.Slug), http.StatusSeeOther)
}

// handlePagePost saves an edit to an existing page, directly or through the
// moderation queue.
func (a *App) handlePagePost(rw http.ResponseWriter, req *http.Request, slug string) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	current, err := a.Pages.GetPageForEdit(slug)
	if err != nil {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}

	title := req.PostFormValue("title")
	body := req.PostFormValue("body")
	summary := req.PostFormValue("summary")

	if req.PostFormValue("action") == "preview" {
		a.previewHandler(rw, req, "page_edit.html", title, body, summary)
		return
	}

	if a.needsModeration(user) {
		item, err := a.Moderation.Submit(user, wiki.ModerationEdit, current.ID, title, body, summary)
		if err != nil {
			a.formError(rw, req, "page_edit.html", err, title, body, summary)
			return
		}
		slog.Info("page edit submitted for review", "category", "moderation", "action", "submit", "item", item.ID, "slug", slug, "username", user.ScreenName)
		http.Redirect(rw, req, "/moderation/submissions?msg=Submitted+for+review", http.StatusSeeOther)
		return
	}

	page, err := a.Pages.EditPage(user, current.ID, title, body, summary)
	if err != nil {
		if errors.Is(err, wiki.ErrEditConflict) {
			// Someone else saved a newer version while this edit was open.
			a.ErrorHandler(http.StatusConflict, rw, req, err)
			return
		}
		if errors.Is(err, wiki.ErrPermissionDenied) {
			a.ErrorHandler(http.StatusForbidden, rw, req, err)
			return
		}
		a.formError(rw, req, "page_edit.html", err, title, body, summary)
		return
	}

	slog.Info("page saved", "category", "page", "action", "save", "slug", page.Slug, "version", page.Version, "username", user.ScreenName)
	http.Redirect(rw, req, "/wiki/"+url.PathEscape(page.Slug), http.StatusSeeOther) // To prevent "browser must resend..."
}

// handleDelete removes a page. Reviewers delete directly; other users submit
// a deletion proposal to the queue.
func (a *App) handleDelete(rw http.ResponseWriter, req *http.Request, slug string) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	page, err := a.Pages.GetPageForEdit(slug)
	if err != nil {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}

	if !user.IsReviewer() {
		item, err := a.Moderation.Submit(user, wiki.ModerationDelete, page.ID, "", "", req.PostFormValue("summary"))
		if err != nil {
			a.ErrorHandler(http.StatusBadRequest, rw, req, err)
			return
		}
		slog.Info("page deletion submitted for review", "category", "moderation", "action", "submit", "item", item.ID, "slug", slug, "username", user.ScreenName)
		http.Redirect(rw, req, "/moderation/submissions?msg=Submitted+for+review", http.StatusSeeOther)
		return
	}

	if err := a.Pages.DeletePage(user, page.ID); err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	slog.Info("page deleted", "category", "page", "action", "delete", "slug", slug, "username", user.ScreenName)
	http.Redirect(rw, req, "/", http.StatusSeeOther)
}

// previewHandler re-renders the edit form with a rendered preview.
func (a *App) previewHandler(rw http.ResponseWriter, req *http.Request, tmpl, title, body, summary string) {
	html, err := a.Rendering.Render(body)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	user := req.Context().Value(wiki.UserKey).(*wiki.User)

	err = a.RenderTemplate(rw, tmpl, "index.html", map[string]interface{}{
		"Page":            wiki.NewStaticPage(title),
		"titleValue":      title,
		"bodyValue":       body,
		"summaryValue":    summary,
		"PreviewHTML":     template.HTML(html),
		"Preview":         true,
		"NeedsModeration": a.needsModeration(user),
		"Context":         req.Context()})
	check(err)
}

// formError re-renders a page form with the submitted values and an error
// callout.
func (a *App) formError(rw http.ResponseWriter, req *http.Request, tmpl string, formErr error, title, body, summary string) {
	user := req.Context().Value(wiki.UserKey).(*wiki.User)
	slog.Warn("page form rejected", "category", "page", "action", "save", "username", user.ScreenName, "reason", formErr.Error())

	status := http.StatusBadRequest
	if errors.Is(formErr, wiki.ErrDuplicateSlug) {
		status = http.StatusConflict
	}
	rw.WriteHeader(status)

	err := a.RenderTemplate(rw, tmpl, "index.html", map[string]interface{}{
		"Page":            wiki.NewStaticPage(title),
		"titleValue":      title,
		"bodyValue":       body,
		"summaryValue":    summary,
		"calloutMessage":  formErr.Error(),
		"calloutClasses":  "qw-error",
		"Preview":         false,
		"NeedsModeration": a.needsModeration(user),
		"Context":         req.Context()})
	check(err)
}

// needsModeration reports whether this user's page changes go through the
// review queue instead of publishing directly.
func (a *App) needsModeration(user *wiki.User) bool {
	return a.RuntimeConfig.ModerationRequired && !user.IsReviewer()
}

func (a *App) ErrorHandler(responseCode int, rw http.ResponseWriter, req *http.Request, errs ...error) {
	rw.WriteHeader(responseCode)
	errorTitle := fmt.Sprintf("%d: %s", responseCode, http.StatusText(responseCode))
	err := a.RenderTemplate(rw, "error.html", "index.html",
		map[string]interface{}{
			"Page":    wiki.NewStaticPage(errorTitle),
			"Context": req.Context(),
			"Error": map[string]interface{}{
				"Code":       responseCode,
				"CodeString": http.StatusText(responseCode),
				"Errors":     errs,
			}})
	if err != nil {
		slog.Error("failed to render error page", "error", err)
		panic(err)
	}
}
