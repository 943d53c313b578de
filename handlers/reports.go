// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prevworks/prevworks/auth"
	"github.com/prevworks/prevworks/cliparse"
	"github.com/prevworks/prevworks/middleware"
	"github.com/prevworks/prevworks/models"
	"github.com/prevworks/prevworks/weekkey"
)

type ReportsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewReportsHandler(db *sql.DB, cfg cliparse.Config) *ReportsHandler {
	return &ReportsHandler{db: db, cfg: cfg}
}

// GetWellbeing handles GET /programs/:id/wellbeing
// Returns weekly department aggregates, optionally filtered by week range
// (?from=YYYY-Www&to=YYYY-Www) and department. The dashboard is a pure
// reader: this endpoint never mutates aggregate state.
func (h *ReportsHandler) GetWellbeing(w http.ResponseWriter, r *http.Request) {
	programID := r.PathValue("id")
	if programID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "program_id is required")
		return
	}

	managerKey := r.Header.Get("X-Manager-Key")
	if err := auth.ValidateManagerKey(programID, managerKey, h.cfg.ManagerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid manager key")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	department := r.URL.Query().Get("department")

	if from != "" && !weekkey.Valid(from) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "from must be a week key (YYYY-Www)")
		return
	}
	if to != "" && !weekkey.Valid(to) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "to must be a week key (YYYY-Www)")
		return
	}

	// Zero-padded week keys sort chronologically, so range filtering is
	// plain string comparison.
	query := `
		SELECT program_id, department, week_key, total, count, avg, score_min, score_max, updated_at
		FROM weekly_aggregate
		WHERE program_id = $1
	`
	args := []interface{}{programID}
	if from != "" {
		args = append(args, from)
		query += ` AND week_key >= $2`
	}
	if to != "" {
		args = append(args, to)
		query += ` AND week_key <= $` + strconv.Itoa(len(args))
	}
	if department != "" {
		args = append(args, department)
		query += ` AND department = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY week_key, department`

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query weekly aggregates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	weeks := []models.WeeklyAggregate{}
	for rows.Next() {
		var agg models.WeeklyAggregate
		if err := rows.Scan(&agg.ProgramID, &agg.Department, &agg.WeekKey,
			&agg.Total, &agg.Count, &agg.Avg, &agg.Min, &agg.Max, &agg.UpdatedAt); err != nil {
			slog.Error("failed to scan aggregate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		weeks = append(weeks, agg)
	}

	middleware.JSONResponse(w, http.StatusOK, models.WellbeingResponse{
		ProgramID: programID,
		Weeks:     weeks,
	})
}

// GetDistribution handles GET /programs/:id/distribution
// Buckets mirror-record scores into the five dashboard ranges, optionally
// filtered by week (?week=YYYY-Www) and department. Reads only the
// anonymized mirror: no resident identity is touched.
func (h *ReportsHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	programID := r.PathValue("id")
	if programID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "program_id is required")
		return
	}

	managerKey := r.Header.Get("X-Manager-Key")
	if err := auth.ValidateManagerKey(programID, managerKey, h.cfg.ManagerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid manager key")
		return
	}

	week := r.URL.Query().Get("week")
	department := r.URL.Query().Get("department")

	if week != "" && !weekkey.Valid(week) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "week must be a week key (YYYY-Www)")
		return
	}

	query := `SELECT score FROM survey_mirror WHERE program_id = $1`
	args := []interface{}{programID}
	if week != "" {
		args = append(args, week)
		query += ` AND week_key = $2`
	}
	if department != "" {
		args = append(args, department)
		query += ` AND department = $` + strconv.Itoa(len(args))
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query mirror scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	scores := []int{}
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			slog.Error("failed to scan score", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		scores = append(scores, s)
	}

	middleware.JSONResponse(w, http.StatusOK, models.DistributionResponse{
		ProgramID: programID,
		WeekKey:   week,
		Total:     len(scores),
		Buckets:   computeDistribution(scores),
	})
}

// computeDistribution buckets WHO-5 total scores into the five ranges the
// dashboard charts: 0-5, 6-10, 11-15, 16-20, 21-25.
func computeDistribution(scores []int) []models.DistributionBucket {
	buckets := []models.DistributionBucket{
		{Label: "0-5", Low: 0, High: 5},
		{Label: "6-10", Low: 6, High: 10},
		{Label: "11-15", Low: 11, High: 15},
		{Label: "16-20", Low: 16, High: 20},
		{Label: "21-25", Low: 21, High: models.ScoreMax},
	}

	for _, s := range scores {
		for i := range buckets {
			if s >= buckets[i].Low && s <= buckets[i].High {
				buckets[i].Count++
				break
			}
		}
	}

	return buckets
}
