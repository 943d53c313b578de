// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prevworks/prevworks/auth"
	"github.com/prevworks/prevworks/cliparse"
	"github.com/prevworks/prevworks/middleware"
	"github.com/prevworks/prevworks/models"
)

type CahpsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewCahpsHandler(db *sql.DB, cfg cliparse.Config) *CahpsHandler {
	return &CahpsHandler{db: db, cfg: cfg}
}

// cahpsHeader is the required CSV header row for uploads.
var cahpsHeader = []string{"department", "measure", "period", "score", "responses"}

// Upload handles POST /programs/:id/cahps
// Accepts a CSV body; the whole batch commits or none of it does.
func (h *CahpsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	programID := r.PathValue("id")
	if programID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "program_id is required")
		return
	}

	// Validate manager key
	managerKey := r.Header.Get("X-Manager-Key")
	if err := auth.ValidateManagerKey(programID, managerKey, h.cfg.ManagerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid manager key")
		return
	}

	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM program WHERE id = $1)
	`, programID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query program", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Program not found")
		return
	}

	defer r.Body.Close()
	reader := csv.NewReader(r.Body)

	header, err := reader.Read()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Empty or unreadable CSV")
		return
	}
	if !equalHeader(header, cahpsHeader) {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			"CSV header must be: department,measure,period,score,responses")
		return
	}

	type row struct {
		department string
		measure    string
		period     string
		score      float64
		responses  int
	}

	rows := []row{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Malformed CSV at line "+strconv.Itoa(line))
			return
		}

		if record[0] == "" || record[1] == "" || record[2] == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest,
				"department, measure, and period are required at line "+strconv.Itoa(line))
			return
		}
		score, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid score at line "+strconv.Itoa(line))
			return
		}
		responses, err := strconv.Atoi(record[4])
		if err != nil || responses < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid responses at line "+strconv.Itoa(line))
			return
		}

		rows = append(rows, row{record[0], record[1], record[2], score, responses})
	}

	if len(rows) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "CSV contains no data rows")
		return
	}

	uploadID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate upload id", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO cahps_upload (id, program_id, row_count, uploaded_at)
		VALUES ($1, $2, $3, $4)
	`, uploadID, programID, len(rows), time.Now())
	if err != nil {
		slog.Error("failed to insert cahps upload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	for _, rw := range rows {
		measureID, err := auth.GenerateID(16)
		if err != nil {
			slog.Error("failed to generate measure id", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save upload")
			return
		}
		_, err = tx.Exec(`
			INSERT INTO cahps_measure (id, upload_id, program_id, department, measure, period, score, responses)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, measureID, uploadID, programID, rw.department, rw.measure, rw.period, rw.score, rw.responses)
		if err != nil {
			slog.Error("failed to insert cahps measure", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save upload")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	slog.Info("cahps upload saved", "program_id", programID, "upload_id", uploadID, "rows", len(rows))

	middleware.JSONResponse(w, http.StatusCreated, models.CahpsUploadResponse{
		UploadID: uploadID,
		RowCount: len(rows),
	})
}

// List handles GET /programs/:id/cahps
// Optional filters: ?period= and ?department=
func (h *CahpsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	period := r.URL.Query().Get("period")
	department := r.URL.Query().Get("department")

	query := `
		SELECT id, program_id, department, measure, period, score, responses
		FROM cahps_measure
		WHERE program_id = $1
	`
	args := []interface{}{programID}
	if period != "" {
		args = append(args, period)
		query += ` AND period = $2`
	}
	if department != "" {
		args = append(args, department)
		query += ` AND department = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY period, department, measure`

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query cahps measures", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	measures := []models.CahpsMeasure{}
	for rows.Next() {
		var m models.CahpsMeasure
		if err := rows.Scan(&m.ID, &m.ProgramID, &m.Department, &m.Measure, &m.Period, &m.Score, &m.Responses); err != nil {
			slog.Error("failed to scan cahps measure", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		measures = append(measures, m)
	}

	middleware.JSONResponse(w, http.StatusOK, measures)
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
