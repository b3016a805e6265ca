package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"songforge/internal/analytics"
	"songforge/internal/logger"
)

type Handler struct {
	Service *analytics.Service
	Visits  *analytics.VisitCounter
	Logger  *logger.Logger
}

// Dashboard returns aggregated order, user and visit metrics. Admin-only.
// The window defaults to 30 days; override with ?days=N.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}

	dash, err := h.Service.GetDashboard(r.Context(), days)
	if err != nil {
		http.Error(w, "Could not build dashboard: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dash)
}

// RecordVisit bumps the visit counters. The landing page calls this once
// per page load; failures are logged and swallowed.
func (h *Handler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	if err := h.Visits.RecordVisit(r.Context()); err != nil {
		h.Logger.Warn("ANALYTICS", "failed to record visit: "+err.Error())
	}
	w.WriteHeader(http.StatusNoContent)
}
