package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finance/internal/auth"
	"finance/internal/backend"
	"finance/internal/core"
	"finance/internal/log"
	"finance/internal/middleware/ratelimit"
	"finance/internal/middleware/security"
	"finance/internal/middleware/trace"
	"finance/internal/services"
	appweb "finance/web"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	SiteName           string
	Backend            backend.Backend
	Sessions           *auth.SessionManager
	CookieSecure       bool
	RateLimitPerMinute int
	Logger             *log.Logger

	// PasswordCost overrides the bcrypt cost; zero keeps the default.
	PasswordCost int
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger
	siteName  string
	startedAt time.Time

	auth     *services.AuthService
	ledger   *services.LedgerService
	goals    *services.GoalService
	summary  *services.SummaryService
	health   backend.Backend
	sessions *auth.SessionManager

	cookieSecure bool
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("server: backend is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("server: session manager is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	authSvc := services.NewAuthService(opts.Backend)
	if opts.PasswordCost > 0 {
		authSvc.WithCost(opts.PasswordCost)
	}
	ledger := services.NewLedgerService(opts.Backend)
	goals := services.NewGoalService(opts.Backend)

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:       logger,
		siteName:     opts.SiteName,
		startedAt:    time.Now(),
		auth:         authSvc,
		ledger:       ledger,
		goals:        goals,
		summary:      services.NewSummaryService(ledger, goals),
		health:       opts.Backend,
		sessions:     opts.Sessions,
		cookieSecure: opts.CookieSecure,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.rateLimiter.Stop()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	router, err := s.routes()
	if err != nil {
		s.rateLimiter.Stop()
		return nil, err
	}

	// Outer chain runs for every request, matched or not
	var h http.Handler = router
	h = auth.Authenticate(s.sessions, s.auth)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s, nil
}

func (s *Server) routes() (*mux.Router, error) {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub))))).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)

	public := r.NewRoute().Subrouter()
	public.Use(limit, security.NoStore)
	public.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet, http.MethodPost)
	public.HandleFunc("/register", s.handleRegister).Methods(http.MethodGet, http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(auth.RequireLogin, limit, security.NoStore)
	protected.HandleFunc("/", s.withIdentity(s.handleDashboard)).Methods(http.MethodGet)
	protected.HandleFunc("/transactions", s.withIdentity(s.handleTransactions)).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/goals", s.withIdentity(s.handleGoals)).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/add_transaction", s.withIdentity(s.handleAddTransaction)).Methods(http.MethodPost)
	protected.HandleFunc("/add_goals", s.withIdentity(s.handleAddGoal)).Methods(http.MethodPost)
	protected.HandleFunc("/updategoalsaving", s.withIdentity(s.handleUpdateGoalSaving)).Methods(http.MethodPost)
	protected.HandleFunc("/deleteGoal", s.withIdentity(s.handleDeleteGoal)).Methods(http.MethodPost)
	protected.HandleFunc("/logout", s.withIdentity(s.handleLogout)).Methods(http.MethodGet)

	return r, nil
}

// identityHandler is a handler that runs for an authenticated user.
type identityHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// withIdentity hands the request's identity to next explicitly.
func (s *Server) withIdentity(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		ctx := log.IntoContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, id.UserID))
		next(w, r.WithContext(ctx), id)
	}
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	requestLogger(r, log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeText(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// pageData is shared by every template.
type pageData struct {
	Site    string
	User    *auth.Identity
	Flashes []Flash
	Next    string
	Email   string

	Summary      core.Summary
	Transactions []core.Transaction
	Goals        []core.GoalProgress
}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request) pageData {
	d := pageData{Site: s.siteName, Flashes: s.popFlashes(w, r)}
	if id, ok := auth.FromContext(r.Context()); ok {
		d.User = &id
	}
	return d
}

// render executes a template into a buffer so a failure can still produce
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		requestLogger(r, log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.String() },
	"pct":   func(p float64) string { return fmt.Sprintf("%.1f", p) },
	// bar caps progress for the <progress> element
	"bar": func(p float64) float64 { return math.Min(math.Max(p, 0), 100) },
}
