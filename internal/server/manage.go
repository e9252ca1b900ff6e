package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/quillwiki/quillwiki/wiki"
)

// DashboardHandler shows site totals for moderators and admins.
func (a *App) DashboardHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireReviewer(rw, req)
	if user == nil {
		return
	}

	stats, err := a.Stats.GetStats(user)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	err = a.RenderTemplate(rw, "dashboard.html", "index.html", map[string]interface{}{
		"Page":    wiki.NewStaticPage("Dashboard"),
		"Stats":   stats,
		"Pending": stats.Moderation[wiki.ModerationPending],
		"Context": req.Context()})
	check(err)
}

// ManageUsersHandler lists all users for admin management.
func (a *App) ManageUsersHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAdmin(rw, req)
	if user == nil {
		return
	}

	users, err := a.Users.GetAllUsers()
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	data := map[string]interface{}{
		"Page":    wiki.NewStaticPage("Manage Users"),
		"Users":   users,
		"Roles":   []string{wiki.RoleUser, wiki.RoleModerator, wiki.RoleAdmin},
		"Context": req.Context(),
	}
	a.addCallout(data, req)

	err = a.RenderTemplate(rw, "users.html", "index.html", data)
	check(err)
}

// ManageUserRoleHandler handles POST requests to change a user's role.
func (a *App) ManageUserRoleHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAdmin(rw, req)
	if user == nil {
		return
	}

	vars := mux.Vars(req)
	targetID, err := strconv.Atoi(vars["id"])
	if err != nil {
		a.ErrorHandler(http.StatusBadRequest, rw, req, err)
		return
	}

	role := req.PostFormValue("role")

	if err := a.Users.SetUserRole(user, targetID, role); err != nil {
		slog.Warn("role change failed", "category", "admin", "action", "set_role", "acting_user", user.ScreenName, "target_id", targetID, "role", role, "error", err)
		http.Redirect(rw, req, "/manage/users?err="+err.Error(), http.StatusSeeOther)
		return
	}

	slog.Info("user role changed", "category", "admin", "action", "set_role", "acting_user", user.ScreenName, "target_id", targetID, "new_role", role)
	http.Redirect(rw, req, "/manage/users?msg=Role+updated", http.StatusSeeOther)
}

// ManageSettingsHandler displays the runtime settings form.
func (a *App) ManageSettingsHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAdmin(rw, req)
	if user == nil {
		return
	}

	data := map[string]interface{}{
		"Page":    wiki.NewStaticPage("Settings"),
		"Context": req.Context(),
		"Settings": map[string]interface{}{
			"AllowSignups":          a.RuntimeConfig.AllowSignups,
			"ModerationRequired":    a.RuntimeConfig.ModerationRequired,
			"MinimumPasswordLength": a.RuntimeConfig.MinimumPasswordLength,
			"CookieExpiry":          a.RuntimeConfig.CookieExpiry,
		},
	}
	a.addCallout(data, req)

	err := a.RenderTemplate(rw, "settings.html", "index.html", data)
	check(err)
}

// ManageSettingsPostHandler handles POST requests to update runtime settings.
func (a *App) ManageSettingsPostHandler(rw http.ResponseWriter, req *http.Request) {
	user := a.RequireAdmin(rw, req)
	if user == nil {
		return
	}

	// Checkboxes: present = true, absent = false
	allowSignups := req.PostFormValue("allow_signups") == "on"
	moderationRequired := req.PostFormValue("moderation_required") == "on"

	minPwLen, err := strconv.Atoi(req.PostFormValue("minimum_password_length"))
	if err != nil || minPwLen < 1 {
		http.Redirect(rw, req, "/manage/settings?err=Minimum+password+length+must+be+at+least+1", http.StatusSeeOther)
		return
	}

	cookieExpiry, err := strconv.Atoi(req.PostFormValue("cookie_expiry"))
	if err != nil || cookieExpiry < 1 {
		http.Redirect(rw, req, "/manage/settings?err=Cookie+expiry+must+be+at+least+1+second", http.StatusSeeOther)
		return
	}

	updates := []struct {
		key   string
		value string
	}{
		{wiki.SettingAllowSignups, strconv.FormatBool(allowSignups)},
		{wiki.SettingModerationRequired, strconv.FormatBool(moderationRequired)},
		{wiki.SettingMinPasswordLength, strconv.Itoa(minPwLen)},
		{wiki.SettingCookieExpiry, strconv.Itoa(cookieExpiry)},
	}

	for _, u := range updates {
		if err := wiki.UpdateSetting(a.DB, u.key, u.value); err != nil {
			slog.Error("failed to update setting", "key", u.key, "error", err)
			http.Redirect(rw, req, "/manage/settings?err="+fmt.Sprintf("Failed+to+update+%s", u.key), http.StatusSeeOther)
			return
		}
	}

	// Update in-memory config
	a.RuntimeConfig.AllowSignups = allowSignups
	a.RuntimeConfig.ModerationRequired = moderationRequired
	a.RuntimeConfig.MinimumPasswordLength = minPwLen
	a.RuntimeConfig.CookieExpiry = cookieExpiry

	slog.Info("settings updated", "category", "admin", "action", "settings", "acting_user", user.ScreenName)
	http.Redirect(rw, req, "/manage/settings?msg=Settings+saved", http.StatusSeeOther)
}
