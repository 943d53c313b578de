// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// WHO-5 survey shape
const (
	AnswerCount = 5
	AnswerMin   = 0
	AnswerMax   = 5
	ScoreMax    = AnswerCount * AnswerMax
)

// Sentinel bounds for a weekly aggregate before any score is folded in.
const (
	AggregateMinSentinel = 999
	AggregateMaxSentinel = -999
)

// Error codes returned in ErrorResponse.Code for conditions callers must
// be able to tell apart from generic failures.
const (
	CodeAlreadySubmittedToday = "already_submitted_today"
	CodeProfileIncomplete     = "profile_incomplete"
)

// Request types

type CreateProgramRequest struct {
	Name string `json:"name"`
}

type CreateResidentRequest struct {
	Department  string `json:"department"`
	DisplayName string `json:"display_name"`
}

// answers in WHO-5 order, each 0-5
type SubmitSurveyRequest struct {
	Answers []int `json:"answers"`
}

// Response types

type CreateProgramResponse struct {
	ProgramID  string `json:"program_id"`
	ManagerKey string `json:"manager_key"`
}

type CreateResidentResponse struct {
	ResidentID    string `json:"resident_id"`
	ResidentToken string `json:"resident_token"`
}

type SubmitSurveyResponse struct {
	SurveyID string `json:"survey_id"`
	Score    int    `json:"score"`
	DayKey   string `json:"day_key"`
}

type TodayResponse struct {
	Submitted bool    `json:"submitted"`
	Survey    *Survey `json:"survey,omitempty"`
}

type ProgramDetailResponse struct {
	Program       Program  `json:"program"`
	ResidentCount int      `json:"resident_count"`
	Departments   []string `json:"departments"`
}

type WellbeingResponse struct {
	ProgramID string            `json:"program_id"`
	Weeks     []WeeklyAggregate `json:"weeks"`
}

type DistributionResponse struct {
	ProgramID string               `json:"program_id"`
	WeekKey   string               `json:"week_key,omitempty"`
	Total     int                  `json:"total"`
	Buckets   []DistributionBucket `json:"buckets"`
}

type CahpsUploadResponse struct {
	UploadID string `json:"upload_id"`
	RowCount int    `json:"row_count"`
}

// Domain types

type Program struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Resident struct {
	ID            string    `json:"id"`
	ProgramID     string    `json:"program_id"`
	Department    string    `json:"department"`
	DisplayName   string    `json:"display_name"`
	ResidentToken string    `json:"-"` // Never expose in JSON
	CreatedAt     time.Time `json:"created_at"`
}

type Survey struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"-"` // Never expose in JSON
	DayKey     string    `json:"day_key"`
	Answers    []int     `json:"answers"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// SurveyMirror is the de-identified copy of a survey used for
// program-level reporting. It carries no resident identity.
type SurveyMirror struct {
	ProgramID  string    `json:"program_id"`
	SurveyID   string    `json:"survey_id"`
	Department string    `json:"department"`
	Score      int       `json:"score"`
	DayKey     string    `json:"day_key"`
	WeekKey    string    `json:"week_key"`
	CreatedAt  time.Time `json:"created_at"`
}

type WeeklyAggregate struct {
	ProgramID  string    `json:"program_id"`
	Department string    `json:"department"`
	WeekKey    string    `json:"week_key"`
	Total      int       `json:"total"`
	Count      int       `json:"count"`
	Avg        float64   `json:"avg"`
	Min        int       `json:"min"`
	Max        int       `json:"max"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DistributionBucket struct {
	Label string `json:"label"`
	Low   int    `json:"low"`
	High  int    `json:"high"`
	Count int    `json:"count"`
}

type CahpsMeasure struct {
	ID         string  `json:"id"`
	ProgramID  string  `json:"program_id"`
	Department string  `json:"department"`
	Measure    string  `json:"measure"`
	Period     string  `json:"period"`
	Score      float64 `json:"score"`
	Responses  int     `json:"responses"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
