// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateProgramRequest: name
  - CreateResidentRequest: department, display_name
  - SubmitSurveyRequest: answers ([5]int, each 0-5)

# Response Types

Types for JSON responses:

  - CreateProgramResponse: program_id, manager_key
  - CreateResidentResponse: resident_id, resident_token
  - SubmitSurveyResponse: survey_id, score, day_key
  - TodayResponse: submitted, survey
  - WellbeingResponse: weekly aggregates per department
  - DistributionResponse: score histogram buckets
  - CahpsUploadResponse: upload_id, row_count
  - ErrorResponse: error, message, code

# Domain Types

Internal data structures:

  - Program: residency program metadata
  - Resident: resident profile (program, department); token never serialized
  - Survey: one WHO-5 submission, immutable after creation
  - SurveyMirror: de-identified survey copy for reporting
  - WeeklyAggregate: running sum/count/avg/min/max per (department, week)
  - CahpsMeasure: one uploaded CG-CAHPS measure row

# Constants

Survey shape:

	AnswerCount = 5
	AnswerMin   = 0
	AnswerMax   = 5
	ScoreMax    = 25

Aggregate sentinels (pre-first-fold bounds):

	AggregateMinSentinel = 999
	AggregateMaxSentinel = -999

Distinguishable error codes:

	CodeAlreadySubmittedToday = "already_submitted_today"
	CodeProfileIncomplete     = "profile_incomplete"
*/
package models
