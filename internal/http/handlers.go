package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"piggybank/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := s.userFromRequest(r)
	overview, err := s.service.Overview(r.Context(), userID)
	if err != nil {
		http.Error(w, "Something went wrong. Please retry.", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Balance": overview.Balance.String(),
		"Percent": overview.Percent,
		"Reasons": core.UnlockReasons(),
		"MinPct":  core.MinSavingsPercent,
		"MaxPct":  core.MaxSavingsPercent,
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
	}
}

// handleAllowance records a deposit and reports how much of it got locked.
func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	userID := s.userFromRequest(r)
	cents, err := core.ParseDecimalToCents(sanitizeInput(r.FormValue("amount")))
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Enter a valid amount greater than zero.")
		return
	}

	receipt, err := s.service.AddAllowance(r.Context(), userID, cents)
	if err != nil {
		s.writeLedgerError(w, r, userID, err)
		return
	}

	s.invalidate(userID)
	w.Header().Set("HX-Trigger", "savings:changed")
	writeMessage(w, http.StatusOK, fmt.Sprintf("%s (%d%%) saved.", receipt.Saved.String(), receipt.Percent))
}

// handleUnlock withdraws from the locked balance for a stated reason.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	userID := s.userFromRequest(r)
	cents, err := core.ParseDecimalToCents(sanitizeInput(r.FormValue("amount")))
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Enter a valid amount greater than zero.")
		return
	}
	reason := core.UnlockReason(sanitizeInput(r.FormValue("reason")))
	notes := sanitizeInput(r.FormValue("notes"))

	receipt, err := s.service.Unlock(r.Context(), userID, cents, reason, notes)
	if err != nil {
		s.writeLedgerError(w, r, userID, err)
		return
	}

	s.invalidate(userID)
	w.Header().Set("HX-Trigger", "savings:changed")
	writeMessage(w, http.StatusOK, fmt.Sprintf("%s unlocked. New balance: %s.", core.FormatDollars(cents), receipt.NewBalance.String()))
}

// handlePercent updates the savings percentage applied to future deposits.
func (s *Server) handlePercent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	userID := s.userFromRequest(r)
	percent, err := strconv.Atoi(sanitizeInput(r.FormValue("percent")))
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, fmt.Sprintf("Choose a percentage between %d and %d.", core.MinSavingsPercent, core.MaxSavingsPercent))
		return
	}

	if err := s.service.ChangePercent(r.Context(), userID, percent); err != nil {
		s.writeLedgerError(w, r, userID, err)
		return
	}

	s.invalidate(userID)
	w.Header().Set("HX-Trigger", "percent:changed")
	writeMessage(w, http.StatusOK, fmt.Sprintf("Savings percentage set to %d%%.", percent))
}

// handleOverview renders the locked-balance partial, cached per user.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := s.userFromRequest(r)
	overview, ok := s.overviewCache.Get(userID)
	if !ok {
		fresh, err := s.service.Overview(r.Context(), userID)
		if err != nil {
			http.Error(w, "Something went wrong. Please retry.", http.StatusInternalServerError)
			return
		}
		overview = fresh
		s.overviewCache.Set(userID, overview)
	}

	data := map[string]any{
		"Balance": overview.Balance.String(),
		"Percent": overview.Percent,
		"History": historyRows(overview.History),
	}
	if err := s.templates.ExecuteTemplate(w, "savings_overview.html", data); err != nil {
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
	}
}

// handleChart renders the cumulative savings series for the requested
// granularity. Unknown granularities fall back to monthly.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := s.userFromRequest(r)
	granularity := parseGranularity(r.URL.Query().Get("granularity"))

	key := seriesKey(userID, granularity)
	points, ok := s.seriesCache.Get(key)
	if !ok {
		fresh, err := s.service.Series(r.Context(), userID, granularity)
		if err != nil {
			http.Error(w, "Something went wrong. Please retry.", http.StatusInternalServerError)
			return
		}
		points = fresh
		s.seriesCache.Set(key, points)
	}

	data := map[string]any{
		"Granularity": string(granularity),
		"Points":      chartRows(points),
	}
	if err := s.templates.ExecuteTemplate(w, "savings_chart.html", data); err != nil {
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
	}
}

// writeLedgerError maps domain errors onto form feedback. Validation
// failures are the user's to fix; anything else gets a generic retry.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, userID string, err error) {
	switch {
	case errors.Is(err, core.ErrInsufficientSavings):
		available, balErr := s.service.Balance(r.Context(), userID)
		if balErr != nil {
			writeMessage(w, http.StatusUnprocessableEntity, "Not enough locked savings for that amount.")
			return
		}
		writeMessage(w, http.StatusUnprocessableEntity, fmt.Sprintf("Enter a valid amount up to %s", available.String()))
	case errors.Is(err, core.ErrInvalidAmount):
		writeMessage(w, http.StatusUnprocessableEntity, "Enter a valid amount greater than zero.")
	case errors.Is(err, core.ErrInvalidPercent):
		writeMessage(w, http.StatusUnprocessableEntity, fmt.Sprintf("Choose a percentage between %d and %d.", core.MinSavingsPercent, core.MaxSavingsPercent))
	case errors.Is(err, core.ErrInvalidReason):
		writeMessage(w, http.StatusUnprocessableEntity, "Choose a reason for unlocking.")
	case errors.Is(err, core.ErrMissingNotes):
		writeMessage(w, http.StatusUnprocessableEntity, "Add a note describing the reason.")
	case core.IsValidationError(err):
		writeMessage(w, http.StatusUnprocessableEntity, "Check the form and try again.")
	default:
		writeMessage(w, http.StatusInternalServerError, "Something went wrong. Please retry.")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<div class="form-message">%s</div>`, msg)
}

func (s *Server) invalidate(userID string) {
	s.InvalidateUser(userID)
}

// userFromRequest identifies the caller. The X-User-ID header is the
// seam for whatever auth fronts this service; absent that, writes land
// on the configured default user.
func (s *Server) userFromRequest(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return s.defaultUser
}

func parseGranularity(raw string) core.Granularity {
	switch core.Granularity(strings.ToLower(strings.TrimSpace(raw))) {
	case core.Daily:
		return core.Daily
	case core.Weekly:
		return core.Weekly
	case core.Yearly:
		return core.Yearly
	default:
		return core.Monthly
	}
}

func seriesKey(userID string, g core.Granularity) string {
	return userID + "|" + string(g)
}

type historyRow struct {
	Date   string
	Type   string
	Amount string
	Reason string
	Notes  string
}

func historyRows(history []core.Transaction) []historyRow {
	rows := make([]historyRow, 0, len(history))
	// Most recent first for display.
	for i := len(history) - 1; i >= 0; i-- {
		tx := history[i]
		rows = append(rows, historyRow{
			Date:   tx.CreatedAt.Format("2006-01-02"),
			Type:   string(tx.Type),
			Amount: tx.Amount.String(),
			Reason: string(tx.Reason),
			Notes:  tx.Notes,
		})
	}
	return rows
}

type chartRow struct {
	Label string
	Total string
}

func chartRows(points []core.SeriesPoint) []chartRow {
	rows := make([]chartRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, chartRow{Label: p.Label, Total: p.Total.String()})
	}
	return rows
}

// sanitizeInput strips control characters and trims whitespace from
// user-supplied form values.
func sanitizeInput(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(bytes)
}
