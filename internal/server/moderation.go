package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/quillwiki/quillwiki/wiki"
)

// ModerationQueueHandler lists every moderation item for reviewers, newest
// first.
func (a *App) ModerationQueueHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireReviewer(rw, req)
	if user == nil {
		return
	}

	items, err := a.Moderation.GetQueue(user)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	data := map[string]interface{}{
		"Page":    wiki.NewStaticPage("Moderation Queue"),
		"Items":   items,
		"Context": req.Context(),
	}
	a.addCallout(data, req)

	err = a.RenderTemplate(rw, "moderation_queue.html", "index.html", data)
	check(err)
}

// MySubmissionsHandler lists the acting user's own submissions.
func (a *App) MySubmissionsHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	items, err := a.Moderation.GetOwnItems(user)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	data := map[string]interface{}{
		"Page":    wiki.NewStaticPage("My Submissions"),
		"Items":   items,
		"Context": req.Context(),
	}
	a.addCallout(data, req)

	err = a.RenderTemplate(rw, "moderation_submissions.html", "index.html", data)
	check(err)
}

// ModerationItemHandler shows a single item with its proposed content
// rendered. Visible to reviewers and the submitter.
func (a *App) ModerationItemHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAuth(rw, req)
	if user == nil {
		return
	}

	vars := mux.Vars(req)
	itemID, err := strconv.Atoi(vars["id"])
	if err != nil {
		a.ErrorHandler(http.StatusBadRequest, rw, req, err)
		return
	}

	item, err := a.Moderation.GetItem(user, itemID)
	if errors.Is(err, wiki.ErrNotFound) {
		a.ErrorHandler(http.StatusNotFound, rw, req, err)
		return
	}
	if errors.Is(err, wiki.ErrPermissionDenied) {
		a.ErrorHandler(http.StatusForbidden, rw, req, err)
		return
	}
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	data := map[string]interface{}{
		"Page":      wiki.NewStaticPage("Review Submission"),
		"Item":      item,
		"CanReview": user.IsReviewer() && item.IsPending(),
		"Context":   req.Context(),
	}

	if item.ProposedMarkdown != "" {
		proposedHTML, err := a.Rendering.Render(item.ProposedMarkdown)
		if err == nil {
			data["ProposedHTML"] = proposedHTML
		}
	}

	err = a.RenderTemplate(rw, "moderation_item.html", "index.html", data)
	check(err)
}

// ModerationReviewPostHandler applies a reviewer's decision. The form posts
// decision=approve|reject and optional notes.
func (a *App) ModerationReviewPostHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireReviewer(rw, req)
	if user == nil {
		return
	}

	vars := mux.Vars(req)
	itemID, err := strconv.Atoi(vars["id"])
	if err != nil {
		a.ErrorHandler(http.StatusBadRequest, rw, req, err)
		return
	}

	decision := req.PostFormValue("decision")
	notes := req.PostFormValue("notes")

	switch decision {
	case "approve":
		err = a.Moderation.Approve(user, itemID, notes)
	case "reject":
		err = a.Moderation.Reject(user, itemID, notes)
	default:
		a.ErrorHandler(http.StatusBadRequest, rw, req, wiki.ErrInvalidAction)
		return
	}

	if err != nil {
		slog.Warn("review failed", "category", "moderation", "action", decision, "item", itemID, "username", user.ScreenName, "reason", err.Error())
		if errors.Is(err, wiki.ErrInvalidState) {
			http.Redirect(rw, req, "/moderation?err="+wiki.ErrInvalidState.Error(), http.StatusSeeOther)
			return
		}
		if errors.Is(err, wiki.ErrDuplicateSlug) || errors.Is(err, wiki.ErrNotFound) || errors.Is(err, wiki.ErrEditConflict) {
			http.Redirect(rw, req, "/moderation?err="+err.Error(), http.StatusSeeOther)
			return
		}
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	slog.Info("submission reviewed", "category", "moderation", "action", decision, "item", itemID, "username", user.ScreenName)
	http.Redirect(rw, req, "/moderation?msg=Submission+"+decision+"d", http.StatusSeeOther)
}

// addCallout copies msg/err query parameters into the render data, for
// post-redirect feedback.
func (a *App) addCallout(data map[string]interface{}, req *http.Request) {
	if msg := req.URL.Query().Get("msg"); msg != "" {
		data["calloutMessage"] = msg
		data["calloutClasses"] = "qw-success"
	}
	if errMsg := req.URL.Query().Get("err"); errMsg != "" {
		data["calloutMessage"] = errMsg
		data["calloutClasses"] = "qw-error"
	}
}
