package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harindujayakody/debt-tracker/internal/core"
	"github.com/harindujayakody/debt-tracker/internal/metrics"
)

// dashboardData is the template payload for index.html. All amounts are
// pre-formatted strings so the template carries no money logic.
type dashboardData struct {
	Token string
	Error string

	TotalDebt        string
	TotalPaid        string
	TotalRemaining   string
	PaidPercent      int
	RemainingPercent int

	People      []personRow
	Outstanding []barRow
	Debts       []debtRow
	Payments    []paymentRow
	Timeline    []timelineRow

	Today string
}

type personRow struct {
	Person      string
	Owed        string
	Paid        string
	Remaining   string
	PercentPaid int
}

type barRow struct {
	Person    string
	Remaining string
	Width     int // bar width percent relative to the largest balance
}

type debtRow struct {
	ID      int64
	Person  string
	Label   string
	Amount  string
	Created string
}

type paymentRow struct {
	ID     int64
	Person string
	Amount string
	PaidAt string
	Note   string
}

type timelineRow struct {
	Month string
	Total string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.renderDashboard(w, r, "", http.StatusOK)
}

// renderDashboard recomputes the full overview from storage and renders the
// page. errMsg, when non-empty, is surfaced inline above the dashboard.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, errMsg string, status int) {
	ov, err := s.ledger.Overview(r.Context())
	if err != nil {
		// A broken store must show as a clear failure, not an empty ledger.
		slog.ErrorContext(r.Context(), "Overview failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	debts, err := s.ledger.Debts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List debts failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	payments, err := s.ledger.Payments(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List payments failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	data := dashboardData{
		Token: s.csrf.issue(w, r),
		Error: errMsg,

		TotalDebt:        ov.TotalDebt.String(),
		TotalPaid:        ov.TotalPaid.String(),
		TotalRemaining:   ov.TotalRemaining.String(),
		PaidPercent:      ov.PaidPercent,
		RemainingPercent: ov.RemainingPercent,

		Today: core.NormalizeDate(""),
	}

	for _, p := range ov.People {
		data.People = append(data.People, personRow{
			Person:      p.Person,
			Owed:        p.Owed.String(),
			Paid:        p.Paid.String(),
			Remaining:   p.Remaining.String(),
			PercentPaid: p.PercentPaid,
		})
	}

	// Scale chart bars against the largest outstanding balance.
	var maxCents int64
	for _, p := range ov.Outstanding {
		if p.Remaining.Cents > maxCents {
			maxCents = p.Remaining.Cents
		}
	}
	for _, p := range ov.Outstanding {
		width := 0
		if maxCents > 0 {
			width = int((p.Remaining.Cents*100 + maxCents/2) / maxCents)
			if width < 2 { // ensure visibility for very small balances
				width = 2
			}
		}
		data.Outstanding = append(data.Outstanding, barRow{
			Person:    p.Person,
			Remaining: p.Remaining.String(),
			Width:     width,
		})
	}

	for _, d := range debts {
		created := ""
		if !d.CreatedAt.IsZero() {
			created = d.CreatedAt.Format("2006-01-02")
		}
		data.Debts = append(data.Debts, debtRow{
			ID:      d.ID,
			Person:  d.Person,
			Label:   d.Label,
			Amount:  d.Amount.String(),
			Created: created,
		})
	}
	for _, p := range payments {
		data.Payments = append(data.Payments, paymentRow{
			ID:     p.ID,
			Person: p.Person,
			Amount: p.Amount.String(),
			PaidAt: p.PaidAt,
			Note:   p.Note,
		})
	}
	for _, mt := range ov.Timeline {
		data.Timeline = append(data.Timeline, timelineRow{
			Month: mt.Month,
			Total: mt.Total.String(),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", "index.html")
	}
}

// mutate wraps the shared plumbing of every mutating handler: POST only,
// form parsing, anti-forgery check before the ledger is touched, metrics,
// and the success/failure rendering policy (redirect on success, inline
// error on storage failure).
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string, apply func() error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !s.csrf.check(r, r.Form.Get("_token")) {
		slog.WarnContext(r.Context(), "Anti-forgery check failed", "op", op)
		http.Error(w, "invalid session token", http.StatusForbidden)
		return
	}

	if err := apply(); err != nil {
		metrics.MutationFailures.WithLabelValues(op).Inc()
		slog.ErrorContext(r.Context(), "Mutation failed", "op", op, "error", err)
		s.renderDashboard(w, r, "Could not save the change, please retry.", http.StatusInternalServerError)
		return
	}

	metrics.Mutations.WithLabelValues(op).Inc()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "add_debt", func() error {
		person := sanitizeInput(r.Form.Get("person"))
		label := sanitizeInput(r.Form.Get("label"))
		amount := strings.TrimSpace(r.Form.Get("amount"))
		if err := s.ledger.AddDebt(r.Context(), person, label, amount, time.Time{}); err != nil {
			if err == core.ErrEmptyPerson {
				return nil // leniency: nothing to record
			}
			return err
		}
		return nil
	})
}

// handleQuickAddDebt is the quick-add flow on an existing person row; the
// person field arrives prefilled and non-empty.
func (s *Server) handleQuickAddDebt(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "add_debt", func() error {
		person := sanitizeInput(r.Form.Get("person"))
		amount := strings.TrimSpace(r.Form.Get("amount"))
		label := sanitizeInput(r.Form.Get("label"))
		if err := s.ledger.AddDebtForPerson(r.Context(), person, amount, label); err != nil {
			if err == core.ErrEmptyPerson {
				return nil
			}
			return err
		}
		return nil
	})
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "delete_debt", func() error {
		return s.ledger.DeleteDebt(r.Context(), formID(r.Form.Get("id")))
	})
}

func (s *Server) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "add_payment", func() error {
		person := sanitizeInput(r.Form.Get("person"))
		amount := strings.TrimSpace(r.Form.Get("amount"))
		paidAt := strings.TrimSpace(r.Form.Get("paid_at"))
		note := sanitizeInput(r.Form.Get("note"))
		if err := s.ledger.AddPayment(r.Context(), person, amount, paidAt, note); err != nil {
			if err == core.ErrEmptyPerson {
				return nil
			}
			return err
		}
		return nil
	})
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "delete_payment", func() error {
		return s.ledger.DeletePayment(r.Context(), formID(r.Form.Get("id")))
	})
}

func (s *Server) handleRenamePerson(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "rename_person", func() error {
		oldName := sanitizeInput(r.Form.Get("old_name"))
		newName := sanitizeInput(r.Form.Get("new_name"))
		return s.ledger.RenamePerson(r.Context(), oldName, newName)
	})
}

// formID parses a row id leniently; malformed input becomes 0, which deletes
// nothing.
func formID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
