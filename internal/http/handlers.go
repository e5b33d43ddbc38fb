package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finance/internal/auth"
	"finance/internal/core"
	"finance/internal/log"
	"finance/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if err := s.health.Ping(ctx); err != nil {
		checks["storage"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
		requestLogger(r, log.ComponentStorage).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# TYPE http_requests_total counter\nhttp_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_us gauge\nhttp_request_duration_avg_us %d\n", traceMetrics.AverageResponseTime)
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\nrate_limit_hits_total %d\n", limitMetrics.TotalHits)
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\nactive_rate_limit_clients %d\n", limitMetrics.ClientCount)
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\nsuspicious_requests_total %d\n", securityMetrics.SuspiciousRequests)
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n", time.Since(s.startedAt).Seconds())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	sum, err := s.summary.ComputeSummary(r.Context(), id.UserID)
	if err != nil {
		s.pageError(w, r, log.ComponentSummary, err)
		return
	}
	all, err := s.ledger.ListTransactions(r.Context(), id.UserID)
	if err != nil {
		s.pageError(w, r, log.ComponentLedger, err)
		return
	}

	data := s.newPage(w, r)
	data.Summary = sum
	data.Transactions = all
	s.render(w, r, http.StatusOK, "index.html", data)
}

// transactionJSON is the wire shape of POST /transactions rows.
type transactionJSON struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Category    *string `json:"category"`
	Amount      float64 `json:"amount"`
	IsExpense   bool    `json:"isExpense"`
	Date        string  `json:"date"`
	DateDisplay string  `json:"date_display"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Title:       t.Title,
		Amount:      t.Amount.Float64(),
		IsExpense:   t.IsExpense,
		Date:        t.Date.ISO(),
		DateDisplay: t.Date.Display(),
	}
	if t.Category != "" {
		c := t.Category
		out.Category = &c
	}
	return out
}

type goalJSON struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Target   float64 `json:"target"`
	Saved    float64 `json:"saved"`
	Progress float64 `json:"progress"`
	Date     string  `json:"date"`
}

func toGoalJSON(g core.GoalProgress) goalJSON {
	return goalJSON{
		ID:       g.ID,
		Title:    g.Title,
		Target:   g.Target.Float64(),
		Saved:    g.Saved.Float64(),
		Progress: g.Progress,
		Date:     g.Date.ISO(),
	}
}

// handleTransactions renders the page on GET and returns every transaction
// as JSON on POST.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	txs, err := s.ledger.ListTransactions(r.Context(), id.UserID)
	if err != nil {
		if r.Method == http.MethodPost {
			writeError(w, r, log.ComponentLedger, log.OpList, err)
			return
		}
		s.pageError(w, r, log.ComponentLedger, err)
		return
	}

	if r.Method == http.MethodPost {
		out := make([]transactionJSON, len(txs))
		for i, t := range txs {
			out[i] = toTransactionJSON(t)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	data := s.newPage(w, r)
	data.Transactions = txs
	s.render(w, r, http.StatusOK, "transactions.html", data)
}

// handleGoals renders the page on GET and returns every goal with its
// progress as JSON on POST.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	goals, err := s.goals.ListGoals(r.Context(), id.UserID)
	if err != nil {
		if r.Method == http.MethodPost {
			writeError(w, r, log.ComponentGoals, log.OpList, err)
			return
		}
		s.pageError(w, r, log.ComponentGoals, err)
		return
	}
	withProgress := services.WithProgress(goals)

	if r.Method == http.MethodPost {
		out := make([]goalJSON, len(withProgress))
		for i, g := range withProgress {
			out[i] = toGoalJSON(g)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	data := s.newPage(w, r)
	data.Goals = withProgress
	s.render(w, r, http.StatusOK, "goals.html", data)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	isExpense, err := parseIsExpense(p.Get("isExpense"))
	if err != nil {
		writeError(w, r, log.ComponentLedger, log.OpCreate, err)
		return
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		writeError(w, r, log.ComponentLedger, log.OpCreate, err)
		return
	}

	_, err = s.ledger.AddTransaction(r.Context(), id.UserID, services.NewTransaction{
		Title:     p.Get("title"),
		IsExpense: isExpense,
		Amount:    amount,
		Category:  p.Get("category"),
		Date:      parseDateOrZero(p.Get("dateAdded")),
	})
	if err != nil {
		writeError(w, r, log.ComponentLedger, log.OpCreate, err)
		return
	}
	writeText(w, http.StatusOK, "Success")
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		writeError(w, r, log.ComponentGoals, log.OpCreate, err)
		return
	}
	saved, err := parseOptionalAmount(p.Get("saving"))
	if err != nil {
		writeError(w, r, log.ComponentGoals, log.OpCreate, &core.ValidationError{Field: "saving", Msg: "invalid amount"})
		return
	}

	_, err = s.goals.AddGoal(r.Context(), id.UserID, services.NewGoal{
		Title:  p.Get("title"),
		Target: target,
		Saved:  saved,
		Date:   parseDateOrZero(p.Get("dateAdded")),
	})
	if err != nil {
		writeError(w, r, log.ComponentGoals, log.OpCreate, err)
		return
	}
	writeText(w, http.StatusOK, "Success")
}

type okResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleUpdateGoalSaving(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, okResponse{Error: "Invalid data"})
		return
	}

	goalID, err := parseID(p.Get("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, okResponse{Error: "Invalid data"})
		return
	}
	saved, err := core.ParseSignedAmount(p.Get("saved"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, okResponse{Error: "Invalid data"})
		return
	}

	switch err := s.goals.UpdateSaving(r.Context(), id.UserID, goalID, saved); statusFor(err) {
	case http.StatusOK:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	case http.StatusNotFound:
		writeJSON(w, http.StatusNotFound, okResponse{Error: "Goal not found"})
	default:
		requestLogger(r, log.ComponentGoals).ErrorContext(r.Context(), "Failed to update goal saving",
			log.FieldError, err,
			log.FieldGoalID, goalID,
			log.FieldOperation, log.OpUpdate)
		writeJSON(w, http.StatusInternalServerError, okResponse{Error: "Internal error"})
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, successResponse{})
		return
	}

	goalID, err := parseID(p.Get("goal_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, successResponse{})
		return
	}

	switch err := s.goals.DeleteGoal(r.Context(), id.UserID, goalID); statusFor(err) {
	case http.StatusOK:
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	case http.StatusNotFound:
		writeJSON(w, http.StatusNotFound, successResponse{})
	default:
		requestLogger(r, log.ComponentGoals).ErrorContext(r.Context(), "Failed to delete goal",
			log.FieldError, err,
			log.FieldGoalID, goalID,
			log.FieldOperation, log.OpDelete)
		writeJSON(w, http.StatusInternalServerError, successResponse{})
	}
}

// pageError renders a generic failure for page routes.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, component string, err error) {
	requestLogger(r, component).ErrorContext(r.Context(), "Page load failed",
		log.FieldError, err,
		log.FieldOperation, log.OpRead)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
