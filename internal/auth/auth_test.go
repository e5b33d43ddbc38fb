package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance/internal/core"
)

type stubUsers map[int64]core.User

func (s stubUsers) UserByID(_ context.Context, id int64) (core.User, error) {
	u, ok := s[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

type failingUsers struct{ err error }

func (f failingUsers) UserByID(context.Context, int64) (core.User, error) {
	return core.User{}, f.err
}

func issueCookie(t *testing.T, m *SessionManager, userID int64) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := m.Issue(rec, userID); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestSessionManager_RoundTrip(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour, false)
	c := issueCookie(t, m, 42)

	if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Name != CookieName {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	id, err := m.Read(req)
	if err != nil || id != 42 {
		t.Fatalf("Read = %d, %v", id, err)
	}
}

func TestSessionManager_Rejects(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour, false)
	valid := issueCookie(t, m, 7)

	expired := NewSessionManager("test-secret", time.Hour, false)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old := issueCookie(t, expired, 7)

	other := NewSessionManager("another-secret", time.Hour, false)
	forged := issueCookie(t, other, 7)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage", &http.Cookie{Name: CookieName, Value: "not-a-token"}},
		{"expired", old},
		{"wrong secret", forged},
		{"tampered", &http.Cookie{Name: CookieName, Value: valid.Value + "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if _, err := m.Read(req); !errors.Is(err, ErrInvalidSession) {
				t.Fatalf("expected ErrInvalidSession, got %v", err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour, false)
	users := stubUsers{1: {ID: 1, Email: "a@x.com"}}

	var got Identity
	var authed bool
	h := Authenticate(m, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, authed = FromContext(r.Context())
	}))

	t.Run("known user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(issueCookie(t, m, 1))
		h.ServeHTTP(httptest.NewRecorder(), req)
		if !authed || got.UserID != 1 || got.Email != "a@x.com" {
			t.Fatalf("identity = %+v, %v", got, authed)
		}
	})

	t.Run("deleted user is anonymous and cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(issueCookie(t, m, 99))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if authed {
			t.Fatal("expected anonymous request")
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
			t.Fatalf("expected cleared session cookie, got %+v", cookies)
		}
	})
}

func TestAuthenticate_StorageFailureKeepsSession(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour, false)
	called := false
	h := Authenticate(m, failingUsers{err: errors.New("database is locked")})(
		RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})))

	req := httptest.NewRequest(http.MethodGet, "/goals", nil)
	req.AddCookie(issueCookie(t, m, 1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (Location %q)", rec.Code, rec.Header().Get("Location"))
	}
	if called {
		t.Error("next handler ran after a storage failure")
	}
	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Errorf("session cookie touched: %+v", cookies)
	}
}

func TestRequireLogin(t *testing.T) {
	h := RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/goals?x=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fgoals%3Fx%3D1" {
		t.Fatalf("Location = %q", loc)
	}

	req = httptest.NewRequest(http.MethodGet, "/goals", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("authenticated status = %d", rec.Code)
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                    "/",
		"/goals":              "/goals",
		"/goals?x=1":          "/goals?x=1",
		"//evil.com":          "/",
		"/\\evil.com":         "/",
		"https://evil.com/":   "/",
		"goals":               "/",
		"javascript:alert(1)": "/",
	}
	for in, want := range tests {
		if got := SafeNext(in); got != want {
			t.Errorf("SafeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
