package server

import (
	"context"
	"net/http"

	"github.com/quillwiki/quillwiki/wiki"
)

const sessionCookieName = "quillwiki-login"

// SessionMiddleware resolves the acting user from the login cookie and places
// it on the request context. The role is re-read from the store on every
// request, so role changes take effect on the next request the target makes.
// Requests without a decodable session proceed as anonymous.
func (a *App) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		user := wiki.AnonymousUser()

		session, err := a.Sessions.GetCookie(req, sessionCookieName)
		if err == nil && session != nil && !session.IsNew {
			if screenname, ok := session.Values["username"].(string); ok {
				if resolved, err := a.Users.GetUserByScreenName(screenname); err == nil {
					user = resolved
				}
			}
		}

		ctx := context.WithValue(req.Context(), wiki.UserKey, user)
		next.ServeHTTP(rw, req.WithContext(ctx))
	})
}
