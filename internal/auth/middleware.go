package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"finance/internal/core"
)

// UserLoader reloads the user behind a session.
type UserLoader interface {
	UserByID(ctx context.Context, id int64) (core.User, error)
}

// Authenticate resolves the session cookie into an Identity on the request
// context. Requests without a valid session pass through anonymously; a
// session pointing at a missing user is cleared. Any other lookup error
// fails the request with 500.
func Authenticate(sessions *SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.Read(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.UserByID(r.Context(), userID)
			if errors.Is(err, core.ErrNotFound) {
				sessions.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				// Storage failure: the session stays valid.
				slog.ErrorContext(r.Context(), "Failed to load session user",
					"error", err,
					"user_id", userID,
					"component", "auth")
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: user.ID, Email: user.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects anonymous requests to /login, remembering the
// original path and query in the next parameter.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func LoginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a local absolute path, otherwise "/".
func SafeNext(next string) string {
	if next == "" || next[0] != '/' || len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}
