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

type ProgramHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewProgramHandler(db *sql.DB, cfg cliparse.Config) *ProgramHandler {
	return &ProgramHandler{db: db, cfg: cfg}
}

// CreateProgram handles POST /programs
func (h *ProgramHandler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProgramRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	programID := uuid.NewString()

	// Manager key is HMAC-derived, never stored
	managerKey := auth.GenerateManagerKey(programID, h.cfg.ManagerKeySalt)

	_, err := h.db.Exec(`
		INSERT INTO program (id, name, created_at)
		VALUES ($1, $2, $3)
	`, programID, req.Name, time.Now())

	if err != nil {
		slog.Error("failed to insert program", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create program")
		return
	}

	slog.Info("program created", "program_id", programID, "name", req.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateProgramResponse{
		ProgramID:  programID,
		ManagerKey: managerKey,
	})
}

// GetProgram handles GET /programs/:id
// Manager view: program metadata plus resident count and departments.
func (h *ProgramHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
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

	var program models.Program
	err := h.db.QueryRow(`
		SELECT id, name, created_at FROM program WHERE id = $1
	`, programID).Scan(&program.ID, &program.Name, &program.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Program not found")
		return
	}
	if err != nil {
		slog.Error("failed to query program", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var residentCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM resident WHERE program_id = $1
	`, programID).Scan(&residentCount)
	if err != nil {
		slog.Error("failed to count residents", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT DISTINCT department FROM resident WHERE program_id = $1 ORDER BY department
	`, programID)
	if err != nil {
		slog.Error("failed to query departments", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	departments := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			slog.Error("failed to scan department", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		departments = append(departments, d)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProgramDetailResponse{
		Program:       program,
		ResidentCount: residentCount,
		Departments:   departments,
	})
}
