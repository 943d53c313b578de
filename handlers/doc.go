// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the PrevWORKS API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - ProgramHandler: program creation and manager dashboard metadata
  - ResidentHandler: resident profile management and token issuance
  - SurveyHandler: WHO-5 survey submission (the Submission Writer)
  - ReportsHandler: wellbeing aggregates and score distributions
  - CahpsHandler: CG-CAHPS CSV upload and retrieval

Handlers are created via constructor functions that accept *sql.DB and
Config; SurveyHandler additionally takes the rollup processor:

	surveyHandler := handlers.NewSurveyHandler(db, cfg, proc)

# Manager Flow

Program managers hold a deterministic HMAC key returned at creation:

	POST /programs                  → CreateProgram (returns manager_key)
	GET  /programs/{id}             → GetProgram
	POST /programs/{id}/residents   → CreateResident (returns resident_token)
	GET  /programs/{id}/residents   → ListResidents
	GET  /programs/{id}/wellbeing   → GetWellbeing
	GET  /programs/{id}/distribution → GetDistribution
	POST /programs/{id}/cahps       → Upload (CSV body)
	GET  /programs/{id}/cahps       → List

Manager operations require the X-Manager-Key header.

# Resident Flow

Residents hold an opaque bearer token:

	POST /surveys       → Submit (once per calendar day)
	GET  /surveys/today → Today
	GET  /residents/me  → GetMe

Resident operations require the X-Resident-Token header.

# Submission Semantics

Submit writes the survey row and its anonymized mirror in one
transaction. The survey table's UNIQUE (resident_id, day_key) makes the
write create-only: a second same-day submission fails with HTTP 409 and
code "already_submitted_today" - a terminal, expected outcome callers
must not retry. After commit the survey is handed to the rollup
processor; hand-off failures are swallowed because the cron sweep
re-offers any survey missing from the apply-once ledger.
*/
package handlers
