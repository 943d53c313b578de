// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prevworks/prevworks/auth"
	"github.com/prevworks/prevworks/models"
	"github.com/prevworks/prevworks/rollup"
	"github.com/prevworks/prevworks/weekkey"
)

func submitSurvey(handler *SurveyHandler, token string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/surveys", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Resident-Token", token)
	}
	w := httptest.NewRecorder()
	handler.Submit(w, req)
	return w
}

func TestSubmitSurvey(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewSurveyHandler(db, cfg, rollup.NewProcessor(db))

	programID, _ := createTestProgram(t, db, cfg, "Internal Medicine Residency")
	_, residentToken := createTestResident(t, db, programID, "Cardiology")

	w := submitSurvey(handler, residentToken, models.SubmitSurveyRequest{
		Answers: []int{3, 2, 4, 1, 5},
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp models.SubmitSurveyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Score != 15 {
		t.Errorf("Expected score 15, got %d", resp.Score)
	}
	if resp.DayKey != weekkey.DayKey(time.Now()) {
		t.Errorf("Expected today's day key, got %s", resp.DayKey)
	}

	// Mirror committed with the survey
	var mirrorScore int
	var mirrorDept string
	err := db.QueryRow(`
		SELECT score, department FROM survey_mirror
		WHERE program_id = $1 AND survey_id = $2
	`, programID, resp.SurveyID).Scan(&mirrorScore, &mirrorDept)
	if err != nil {
		t.Fatalf("Failed to query mirror: %v", err)
	}
	if mirrorScore != 15 {
		t.Errorf("Expected mirror score 15, got %d", mirrorScore)
	}
	if mirrorDept != "Cardiology" {
		t.Errorf("Expected mirror department Cardiology, got '%s'", mirrorDept)
	}

	// Synchronous hand-off folded the survey into this week's aggregate
	wk := weekkey.FromTime(time.Now())
	var total, count int
	var avg float64
	err = db.QueryRow(`
		SELECT total, count, avg FROM weekly_aggregate
		WHERE program_id = $1 AND department = $2 AND week_key = $3
	`, programID, "Cardiology", wk).Scan(&total, &count, &avg)
	if err != nil {
		t.Fatalf("Failed to query aggregate: %v", err)
	}
	if total != 15 || count != 1 || avg != 15.0 {
		t.Errorf("Expected aggregate {15, 1, 15.0}, got {%d, %d, %v}", total, count, avg)
	}
}

func TestSubmitSurveyOncePerDay(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewSurveyHandler(db, cfg, rollup.NewProcessor(db))

	programID, _ := createTestProgram(t, db, cfg, "Internal Medicine Residency")
	_, residentToken := createTestResident(t, db, programID, "Cardiology")

	w := submitSurvey(handler, residentToken, models.SubmitSurveyRequest{
		Answers: []int{3, 2, 4, 1, 5},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("First submission: expected 201, got %d", w.Code)
	}

	// Same day, different answers: rejected with a distinguishable code
	w = submitSurvey(handler, residentToken, models.SubmitSurveyRequest{
		Answers: []int{5, 5, 5, 5, 5},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("Second submission: expected 409, got %d. Body: %s", w.Code, w.Body.String())
	}

	var errResp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if errResp.Code != models.CodeAlreadySubmittedToday {
		t.Errorf("Expected code %s, got '%s'", models.CodeAlreadySubmittedToday, errResp.Code)
	}

	// Nothing from the rejected submission leaked into the aggregate
	var count, total int
	err := db.QueryRow(`
		SELECT count, total FROM weekly_aggregate WHERE program_id = $1
	`, programID).Scan(&count, &total)
	if err != nil {
		t.Fatalf("Failed to query aggregate: %v", err)
	}
	if count != 1 || total != 15 {
		t.Errorf("Expected aggregate unchanged at {count: 1, total: 15}, got {count: %d, total: %d}", count, total)
	}
}

func TestSubmitSurveyValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewSurveyHandler(db, cfg, rollup.NewProcessor(db))

	programID, _ := createTestProgram(t, db, cfg, "Internal Medicine Residency")
	_, residentToken := createTestResident(t, db, programID, "Cardiology")

	tests := []struct {
		name           string
		token          string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "missing token",
			token:          "",
			body:           models.SubmitSurveyRequest{Answers: []int{1, 2, 3, 4, 5}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			token:          "not-a-token",
			body:           models.SubmitSurveyRequest{Answers: []int{1, 2, 3, 4, 5}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "too few answers",
			token:          residentToken,
			body:           models.SubmitSurveyRequest{Answers: []int{1, 2, 3}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "too many answers",
			token:          residentToken,
			body:           models.SubmitSurveyRequest{Answers: []int{1, 2, 3, 4, 5, 0}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "answer above range",
			token:          residentToken,
			body:           models.SubmitSurveyRequest{Answers: []int{1, 2, 3, 4, 6}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "answer below range",
			token:          residentToken,
			body:           models.SubmitSurveyRequest{Answers: []int{1, 2, 3, 4, -1}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no answers",
			token:          residentToken,
			body:           models.SubmitSurveyRequest{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := submitSurvey(handler, tt.token, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	// Rejected submissions leave no trace
	var surveys int
	if err := db.QueryRow(`SELECT COUNT(*) FROM survey`).Scan(&surveys); err != nil {
		t.Fatalf("Failed to count surveys: %v", err)
	}
	if surveys != 0 {
		t.Errorf("Expected 0 surveys after rejected submissions, got %d", surveys)
	}
}

func TestSubmitSurveyIncompleteProfile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewSurveyHandler(db, cfg, rollup.NewProcessor(db))

	programID, _ := createTestProgram(t, db, cfg, "Internal Medicine Residency")

	// Resident enrolled without a department
	residentToken, err := auth.GenerateResidentToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO resident (id, program_id, department, resident_token, created_at)
		VALUES ($1, $2, '', $3, $4)
	`, uuid.NewString(), programID, residentToken, time.Now())
	if err != nil {
		t.Fatalf("Failed to create resident: %v", err)
	}

	w := submitSurvey(handler, residentToken, models.SubmitSurveyRequest{
		Answers: []int{3, 2, 4, 1, 5},
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d. Body: %s", w.Code, w.Body.String())
	}

	var errResp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if errResp.Code != models.CodeProfileIncomplete {
		t.Errorf("Expected code %s, got '%s'", models.CodeProfileIncomplete, errResp.Code)
	}
}

func TestToday(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewSurveyHandler(db, cfg, rollup.NewProcessor(db))

	programID, _ := createTestProgram(t, db, cfg, "Internal Medicine Residency")
	_, residentToken := createTestResident(t, db, programID, "Cardiology")

	getToday := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/surveys/today", nil)
		if token != "" {
			req.Header.Set("X-Resident-Token", token)
		}
		w := httptest.NewRecorder()
		handler.Today(w, req)
		return w
	}

	t.Run("before submission", func(t *testing.T) {
		w := getToday(residentToken)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var resp models.TodayResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Submitted {
			t.Error("Expected submitted=false before any submission")
		}
		if resp.Survey != nil {
			t.Error("Expected no survey before any submission")
		}
	})

	t.Run("after submission", func(t *testing.T) {
		w := submitSurvey(handler, residentToken, models.SubmitSurveyRequest{
			Answers: []int{3, 2, 4, 1, 5},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("Submission failed: %d", w.Code)
		}

		w = getToday(residentToken)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var resp models.TodayResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !resp.Submitted {
			t.Error("Expected submitted=true after submission")
		}
		if resp.Survey == nil {
			t.Fatal("Expected survey details after submission")
		}
		if resp.Survey.Score != 15 {
			t.Errorf("Expected score 15, got %d", resp.Survey.Score)
		}
		if len(resp.Survey.Answers) != 5 {
			t.Errorf("Expected 5 answers, got %d", len(resp.Survey.Answers))
		}
	})

	t.Run("missing token", func(t *testing.T) {
		w := getToday("")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})
}
