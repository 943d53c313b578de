// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/prevworks/prevworks/auth"
	"github.com/prevworks/prevworks/cliparse"
	"github.com/prevworks/prevworks/middleware"
	"github.com/prevworks/prevworks/models"
)

type ResidentHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResidentHandler(db *sql.DB, cfg cliparse.Config) *ResidentHandler {
	return &ResidentHandler{db: db, cfg: cfg}
}

// CreateResident handles POST /programs/:id/residents
// The returned token is shown once; it is the resident's only credential.
func (h *ResidentHandler) CreateResident(w http.ResponseWriter, r *http.Request) {
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

	// Parse request
	var req models.CreateResidentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Department == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "department is required")
		return
	}

	// Check the program exists
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

	residentID := uuid.NewString()
	residentToken, err := auth.GenerateResidentToken()
	if err != nil {
		slog.Error("failed to generate resident token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create resident")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO resident (id, program_id, department, display_name, resident_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, residentID, programID, req.Department, req.DisplayName, residentToken, time.Now())

	if err != nil {
		slog.Error("failed to insert resident", "error", err, "program_id", programID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create resident")
		return
	}

	slog.Info("resident created", "program_id", programID, "resident_id", residentID, "department", req.Department)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateResidentResponse{
		ResidentID:    residentID,
		ResidentToken: residentToken,
	})
}

// ListResidents handles GET /programs/:id/residents
// Tokens are never included (Resident.ResidentToken is json:"-").
func (h *ResidentHandler) ListResidents(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.db.Query(`
		SELECT id, program_id, department, COALESCE(display_name, ''), created_at
		FROM resident
		WHERE program_id = $1
		ORDER BY created_at
	`, programID)
	if err != nil {
		slog.Error("failed to query residents", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	residents := []models.Resident{}
	for rows.Next() {
		var res models.Resident
		if err := rows.Scan(&res.ID, &res.ProgramID, &res.Department, &res.DisplayName, &res.CreatedAt); err != nil {
			slog.Error("failed to scan resident", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		residents = append(residents, res)
	}

	middleware.JSONResponse(w, http.StatusOK, residents)
}

// GetMe handles GET /residents/me
func (h *ResidentHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	residentToken := r.Header.Get("X-Resident-Token")
	if residentToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Resident-Token header required")
		return
	}

	var res models.Resident
	err := h.db.QueryRow(`
		SELECT id, program_id, department, COALESCE(display_name, ''), created_at
		FROM resident
		WHERE resident_token = $1
	`, residentToken).Scan(&res.ID, &res.ProgramID, &res.Department, &res.DisplayName, &res.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid resident token")
		return
	}
	if err != nil {
		slog.Error("failed to query resident", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, res)
}
