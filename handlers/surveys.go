// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/prevworks/prevworks/auth"
	"github.com/prevworks/prevworks/cliparse"
	"github.com/prevworks/prevworks/middleware"
	"github.com/prevworks/prevworks/models"
	"github.com/prevworks/prevworks/rollup"
	"github.com/prevworks/prevworks/weekkey"
)

type SurveyHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	proc *rollup.Processor
}

func NewSurveyHandler(db *sql.DB, cfg cliparse.Config, proc *rollup.Processor) *SurveyHandler {
	return &SurveyHandler{db: db, cfg: cfg, proc: proc}
}

// Submit handles POST /surveys
// One survey per resident per calendar day: the survey row and its
// anonymized mirror commit atomically, and the UNIQUE (resident_id,
// day_key) constraint rejects a second same-day submission instead of
// racing a separate existence check.
func (h *SurveyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	// Get resident token from header
	residentToken := r.Header.Get("X-Resident-Token")
	if residentToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Resident-Token header required")
		return
	}

	// Resolve the resident profile
	var residentID, programID, department string
	err := h.db.QueryRow(`
		SELECT id, program_id, department FROM resident WHERE resident_token = $1
	`, residentToken).Scan(&residentID, &programID, &department)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid resident token")
		return
	}
	if err != nil {
		slog.Error("failed to query resident", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if programID == "" || department == "" {
		middleware.CodedErrorResponse(w, http.StatusConflict, models.CodeProfileIncomplete,
			"Resident profile is missing program or department")
		return
	}

	// Parse request
	var req models.SubmitSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Answers) != models.AnswerCount {
		middleware.ErrorResponse(w, http.StatusBadRequest, "answers must contain exactly 5 values")
		return
	}

	score := 0
	for _, a := range req.Answers {
		if a < models.AnswerMin || a > models.AnswerMax {
			middleware.ErrorResponse(w, http.StatusBadRequest, "each answer must be between 0 and 5")
			return
		}
		score += a
	}

	now := time.Now()
	dayKey := weekkey.DayKey(now)
	wk := weekkey.FromTime(now)
	surveyID := uuid.NewString()

	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.ManagerKeySalt) // Reuse manager salt for IP hashing

	// Survey and mirror commit together or not at all
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO survey (id, resident_id, day_key, answer1, answer2, answer3, answer4, answer5, score, ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, surveyID, residentID, dayKey,
		req.Answers[0], req.Answers[1], req.Answers[2], req.Answers[3], req.Answers[4],
		score, ipHash, now)

	if err != nil {
		if isUniqueViolation(err) {
			middleware.CodedErrorResponse(w, http.StatusConflict, models.CodeAlreadySubmittedToday,
				"Survey already submitted today")
			return
		}
		slog.Error("failed to insert survey", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit survey")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO survey_mirror (program_id, survey_id, department, score, day_key, week_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, programID, surveyID, department, score, dayKey, wk, now)

	if err != nil {
		slog.Error("failed to insert survey mirror", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit survey")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit survey")
		return
	}

	// Hand the committed survey to the rollup processor. A failure here is
	// not surfaced: the survey is durable and the sweep will retry.
	if err := h.proc.Process(surveyID); err != nil {
		slog.Error("rollup hand-off failed", "survey_id", surveyID, "error", err)
	}

	slog.Info("survey submitted", "survey_id", surveyID, "day_key", dayKey, "score", score)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitSurveyResponse{
		SurveyID: surveyID,
		Score:    score,
		DayKey:   dayKey,
	})
}

// Today handles GET /surveys/today
// Reports whether the calling resident has already submitted a survey
// on the current calendar day.
func (h *SurveyHandler) Today(w http.ResponseWriter, r *http.Request) {
	residentToken := r.Header.Get("X-Resident-Token")
	if residentToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Resident-Token header required")
		return
	}

	var residentID string
	err := h.db.QueryRow(`
		SELECT id FROM resident WHERE resident_token = $1
	`, residentToken).Scan(&residentID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid resident token")
		return
	}
	if err != nil {
		slog.Error("failed to query resident", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	dayKey := weekkey.DayKey(time.Now())

	var survey models.Survey
	var a1, a2, a3, a4, a5 int
	err = h.db.QueryRow(`
		SELECT id, day_key, answer1, answer2, answer3, answer4, answer5, score, created_at
		FROM survey
		WHERE resident_id = $1 AND day_key = $2
	`, residentID, dayKey).Scan(
		&survey.ID, &survey.DayKey, &a1, &a2, &a3, &a4, &a5, &survey.Score, &survey.CreatedAt,
	)

	if err == sql.ErrNoRows {
		middleware.JSONResponse(w, http.StatusOK, models.TodayResponse{Submitted: false})
		return
	}
	if err != nil {
		slog.Error("failed to query survey", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	survey.Answers = []int{a1, a2, a3, a4, a5}

	middleware.JSONResponse(w, http.StatusOK, models.TodayResponse{
		Submitted: true,
		Survey:    &survey,
	})
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (error class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
