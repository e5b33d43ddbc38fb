package http

import (
	"errors"
	"net/http"

	"finance/internal/auth"
	"finance/internal/core"
	"finance/internal/log"
)

const (
	msgInvalidLogin     = "Invalid email or password"
	msgPasswordMismatch = "Passwords do not match"
	msgEmailTaken       = "Email already registered, please login."
	msgAccountCreated   = "Account created! You can now log in."
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := s.newPage(w, r)
	data.Next = r.URL.Query().Get("next")

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "login.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		data.Flashes = append(data.Flashes, Flash{Category: "error", Message: "Invalid request"})
		s.render(w, r, http.StatusBadRequest, "login.html", data)
		return
	}
	if next := r.PostForm.Get("next"); next != "" {
		data.Next = next
	}
	data.Email = sanitizeInput(r.PostForm.Get("email"))

	user, err := s.auth.Verify(r.Context(), data.Email, r.PostForm.Get("password"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.pageError(w, r, log.ComponentAuth, err)
			return
		}
		requestLogger(r, log.ComponentAuth).WarnContext(r.Context(), "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldClientIP, s.detector.ExtractClientIP(r))
		data.Flashes = append(data.Flashes, Flash{Category: "error", Message: msgInvalidLogin})
		s.render(w, r, status, "login.html", data)
		return
	}

	if err := s.sessions.Issue(w, user.ID); err != nil {
		s.pageError(w, r, log.ComponentAuth, err)
		return
	}
	requestLogger(r, log.ComponentAuth).InfoContext(r.Context(), "User logged in",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpLogin)
	http.Redirect(w, r, auth.SafeNext(data.Next), http.StatusFound)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := s.newPage(w, r)
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "register.html", data)
		return
	}

	fail := func(status int, msg string) {
		data.Flashes = append(data.Flashes, Flash{Category: "error", Message: msg})
		s.render(w, r, status, "register.html", data)
	}

	if err := r.ParseForm(); err != nil {
		fail(http.StatusBadRequest, "Invalid request")
		return
	}
	data.Email = sanitizeInput(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	if password != r.PostForm.Get("confirm") && data.Email != "" && password != "" {
		fail(http.StatusBadRequest, msgPasswordMismatch)
		return
	}

	if _, err := s.auth.Register(r.Context(), data.Email, password); err != nil {
		var ve *core.ValidationError
		switch {
		case errors.As(err, &ve):
			fail(http.StatusBadRequest, ve.Msg)
		case errors.Is(err, core.ErrDuplicateEmail):
			fail(http.StatusConflict, msgEmailTaken)
		default:
			s.pageError(w, r, log.ComponentAuth, err)
		}
		return
	}

	s.setFlash(w, "success", msgAccountCreated)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.sessions.Clear(w)
	requestLogger(r, log.ComponentAuth).InfoContext(r.Context(), "User logged out",
		log.FieldUserID, id.UserID,
		log.FieldOperation, log.OpLogout)
	http.Redirect(w, r, "/login", http.StatusFound)
}
