package wiki

// Action identifies a privileged operation checked by Authorize.
type Action string

// Privileged actions.
const (
	ActionEditPage   Action = "edit_page"
	ActionDeletePage Action = "delete_page"
	ActionReview     Action = "review_moderation"
	ActionChangeRole Action = "change_role"
)

// Authorize is the single permission decision point. It is evaluated
// statelessly from the actor's resolved role and the resource's ownership:
//
//	edit page    — page author, moderator, or admin
//	delete page  — moderator or admin (authorship alone is insufficient)
//	review       — moderator or admin
//	change role  — admin, and never on their own account
//
// Actors without a resolved profile (nil or anonymous) are denied every
// action. The resource is a *Page for page actions and the target *User for
// role changes; review takes the moderation item but only the actor's role
// matters.
func Authorize(actor *User, action Action, resource interface{}) bool {
	if actor.IsAnonymous() || !ValidRole(actor.Role) {
		return false
	}

	switch action {
	case ActionEditPage:
		page, ok := resource.(*Page)
		if !ok || page == nil {
			return false
		}
		return page.AuthorID == actor.ID || actor.IsReviewer()

	case ActionDeletePage:
		return actor.IsReviewer()

	case ActionReview:
		return actor.IsReviewer()

	case ActionChangeRole:
		target, ok := resource.(*User)
		if !ok || target == nil {
			return false
		}
		if target.ID == actor.ID {
			return false
		}
		return actor.IsAdmin()
	}

	return false
}
