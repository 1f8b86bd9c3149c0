// Package api exposes HTTP handlers for the ingestion pipeline.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/wellness/internal/auth"
	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/persistence"
)

// Handler coordinates HTTP requests with the ingestion service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/quick-steps", h.quickSteps)
	mux.HandleFunc("/v1/stats", h.userStats)
	mux.HandleFunc("/v1/stats/weekly", h.weeklySummary)
	mux.HandleFunc("/v1/stats/records", h.personalRecords)
	mux.HandleFunc("/v1/stats/insights", h.workoutInsights)
	mux.HandleFunc("/v1/stats/patterns", h.activityPatterns)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordActivity(w, r)
	case http.MethodGet:
		h.activityHistory(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := writeScope(w, r)
	if !ok {
		return
	}

	var req RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	accepted, err := h.service.RecordActivity(r.Context(), claims.Subject, domain.RecordActivityInput{
		Type:         domain.ActivityType(req.ActivityType),
		Steps:        req.Steps,
		DurationMin:  req.DurationMin,
		Calories:     req.Calories,
		DistanceKm:   req.DistanceKm,
		HeartRateAvg: req.HeartRateAvg,
		Notes:        req.Notes,
	})
	if err != nil {
		var rej *domain.Rejection
		if errors.As(err, &rej) {
			writeJSON(w, http.StatusUnprocessableEntity, RecordActivityResponse{
				Accepted: false,
				Reason:   rej.Reason,
			})
			return
		}
		if errors.Is(err, domain.ErrNoUser) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, RecordActivityResponse{Accepted: accepted})
}

func (h *Handler) quickSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := writeScope(w, r)
	if !ok {
		return
	}

	var req QuickStepsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	accepted, err := h.service.RecordQuickSteps(r.Context(), claims.Subject, req.Steps)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSteps) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		if errors.Is(err, domain.ErrNoUser) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, RecordActivityResponse{Accepted: accepted})
}

func (h *Handler) activityHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	activities, next, err := h.service.GetActivityHistory(r.Context(), claims.Subject, days, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ActivityHistoryResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetUserStats(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toStatsView(*stats))
}

func (h *Handler) weeklySummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetWeeklySummary(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) personalRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	records, err := h.service.GetPersonalRecords(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) workoutInsights(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	insights, err := h.service.GetWorkoutInsights(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (h *Handler) activityPatterns(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "week"
	}

	patterns, err := h.service.GetActivityPatterns(r.Context(), claims.Subject, timeframe)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTimeframe) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

func writeScope(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:write required")
		return nil, false
	}
	return claims, true
}

func readScope(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeActivitiesRead) && !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:read required")
		return nil, false
	}
	return claims, true
}

// RecordActivityRequest is the payload for POST /v1/activities.
type RecordActivityRequest struct {
	ActivityType string   `json:"activity_type"`
	Steps        int      `json:"steps"`
	DurationMin  int      `json:"duration_min"`
	Calories     int      `json:"calories"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	HeartRateAvg *int     `json:"heart_rate_avg,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Validate ensures request correctness before the domain sees it.
func (r RecordActivityRequest) Validate() error {
	if strings.TrimSpace(r.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if r.Steps < 0 {
		return errors.New("steps must be >= 0")
	}
	if r.DurationMin < 0 {
		return errors.New("duration_min must be >= 0")
	}
	if r.Calories < 0 {
		return errors.New("calories must be >= 0")
	}
	return nil
}

// QuickStepsRequest is the payload for POST /v1/activities/quick-steps.
type QuickStepsRequest struct {
	Steps int `json:"steps"`
}

// RecordActivityResponse reports the ingestion outcome.
type RecordActivityResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// ActivityView exposes one activity log row.
type ActivityView struct {
	ActivityID           string    `json:"activity_id"`
	ActivityType         string    `json:"activity_type"`
	Date                 string    `json:"date"`
	Steps                int       `json:"steps"`
	DurationMin          int       `json:"duration_min"`
	Calories             int       `json:"calories"`
	DistanceKm           *float64  `json:"distance_km,omitempty"`
	HeartRateAvg         *int      `json:"heart_rate_avg,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	EntryMethod          string    `json:"entry_method"`
	VerificationStatus   string    `json:"verification_status"`
	VerificationRequired bool      `json:"verification_required"`
	CreatedAt            time.Time `json:"created_at"`
}

// ActivityHistoryResponse packages history results.
type ActivityHistoryResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// StatsView exposes the derived user_stats row.
type StatsView struct {
	UserID        string    `json:"user_id"`
	TodaySteps    int       `json:"today_steps"`
	PendingSteps  int       `json:"pending_steps"`
	VerifiedSteps int       `json:"verified_steps"`
	WeeklySteps   int       `json:"weekly_steps"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	Calories      int       `json:"calories_burned"`
	HeartRate     int       `json:"heart_rate"`
	LastUpdated   time.Time `json:"last_updated"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ActivityID:           a.ID,
		ActivityType:         string(a.Type),
		Date:                 a.Date.Format("2006-01-02"),
		Steps:                a.Steps,
		DurationMin:          a.DurationMin,
		Calories:             a.Calories,
		DistanceKm:           a.DistanceKm,
		HeartRateAvg:         a.HeartRateAvg,
		Notes:                a.Notes,
		EntryMethod:          string(a.EntryMethod),
		VerificationStatus:   string(a.VerificationStatus),
		VerificationRequired: a.VerificationRequired,
		CreatedAt:            a.CreatedAt,
	}
}

func toStatsView(s domain.UserStats) StatsView {
	return StatsView{
		UserID:        s.UserID,
		TodaySteps:    s.TodaySteps,
		PendingSteps:  s.PendingSteps,
		VerifiedSteps: s.VerifiedSteps,
		WeeklySteps:   s.WeeklySteps,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		Calories:      s.Calories,
		HeartRate:     s.HeartRate,
		LastUpdated:   s.LastUpdated,
	}
}
