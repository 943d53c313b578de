// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prevworks/prevworks/cliparse"
	"github.com/prevworks/prevworks/handlers"
	"github.com/prevworks/prevworks/middleware"
	"github.com/prevworks/prevworks/rollup"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, proc *rollup.Processor) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	programHandler := handlers.NewProgramHandler(db, cfg)
	residentHandler := handlers.NewResidentHandler(db, cfg)
	surveyHandler := handlers.NewSurveyHandler(db, cfg, proc)
	reportsHandler := handlers.NewReportsHandler(db, cfg)
	cahpsHandler := handlers.NewCahpsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Program management (manager operations)
	mux.HandleFunc("POST /programs", middleware.WithLogging(programHandler.CreateProgram))
	mux.HandleFunc("GET /programs/{id}", middleware.WithLogging(programHandler.GetProgram))
	mux.HandleFunc("POST /programs/{id}/residents", middleware.WithLogging(residentHandler.CreateResident))
	mux.HandleFunc("GET /programs/{id}/residents", middleware.WithLogging(residentHandler.ListResidents))

	// Survey submission (resident operations)
	mux.HandleFunc("POST /surveys", middleware.WithLogging(surveyHandler.Submit))
	mux.HandleFunc("GET /surveys/today", middleware.WithLogging(surveyHandler.Today))
	mux.HandleFunc("GET /residents/me", middleware.WithLogging(residentHandler.GetMe))

	// Dashboard reads (manager operations)
	mux.HandleFunc("GET /programs/{id}/wellbeing", middleware.WithLogging(reportsHandler.GetWellbeing))
	mux.HandleFunc("GET /programs/{id}/distribution", middleware.WithLogging(reportsHandler.GetDistribution))

	// CG-CAHPS uploads (manager operations)
	mux.HandleFunc("POST /programs/{id}/cahps", middleware.WithLogging(cahpsHandler.Upload))
	mux.HandleFunc("GET /programs/{id}/cahps", middleware.WithLogging(cahpsHandler.List))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PrevWORKS API v1"))
	})

	return mux
}
