// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the PrevWORKS API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, proc)

# Endpoints

Health:

	GET /health

Program management (requires X-Manager-Key):

	POST /programs                - Create program
	GET  /programs/{id}           - Program details
	POST /programs/{id}/residents - Enroll resident
	GET  /programs/{id}/residents - List residents

Surveys (resident, uses X-Resident-Token):

	POST /surveys       - Submit daily well-being survey
	GET  /surveys/today - Today's submission, if any
	GET  /residents/me  - Resident profile

Dashboard reads (requires X-Manager-Key):

	GET /programs/{id}/wellbeing    - Weekly aggregates
	GET /programs/{id}/distribution - Score distribution buckets

CG-CAHPS (requires X-Manager-Key):

	POST /programs/{id}/cahps - Upload measures CSV
	GET  /programs/{id}/cahps - List measures

# Handler Initialization

The router creates handler instances with dependency injection:

	surveyHandler := handlers.NewSurveyHandler(db, cfg, proc)
	programHandler := handlers.NewProgramHandler(db, cfg)
	residentHandler := handlers.NewResidentHandler(db, cfg)
	reportsHandler := handlers.NewReportsHandler(db, cfg)
	cahpsHandler := handlers.NewCahpsHandler(db, cfg)

Handlers receive the database connection and configuration; the survey
handler additionally receives the rollup processor so a successful
submission is folded into the weekly aggregate without waiting for the
sweep.
*/
package router
