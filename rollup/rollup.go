// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollup

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/prevworks/prevworks/models"
	"github.com/prevworks/prevworks/weekkey"
)

// ErrAggregateUpdateFailed is returned when the aggregate transaction
// keeps hitting contention past the attempt limit. The survey stays
// unfolded and the sweep will offer it again.
var ErrAggregateUpdateFailed = errors.New("aggregate update failed")

const maxFoldAttempts = 3

// sweepBatchSize bounds how many unfolded surveys one sweep picks up.
const sweepBatchSize = 100

type Processor struct {
	db *sql.DB
}

func NewProcessor(db *sql.DB) *Processor {
	return &Processor{db: db}
}

// Process folds one created survey into program-level anonymized state:
// it re-reads the resident's profile, upserts the anonymized mirror
// record, and updates the weekly department aggregate. Safe to call more
// than once for the same survey; replays are no-ops.
//
// A missing or incomplete profile is a silent no-op, not an error:
// profile completion is eventually consistent and the sweep re-offers the
// survey until the profile qualifies.
func (p *Processor) Process(surveyID string) error {
	var residentID, dayKey string
	var score int
	var createdAt time.Time
	err := p.db.QueryRow(`
		SELECT resident_id, day_key, score, created_at FROM survey WHERE id = $1
	`, surveyID).Scan(&residentID, &dayKey, &score, &createdAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("survey %s not found", surveyID)
	}
	if err != nil {
		return fmt.Errorf("failed to load survey %s: %w", surveyID, err)
	}

	// Step 1: context resolution
	var programID, department string
	err = p.db.QueryRow(`
		SELECT program_id, department FROM resident WHERE id = $1
	`, residentID).Scan(&programID, &department)
	if err == sql.ErrNoRows {
		slog.Warn("rollup skipped: resident profile missing", "survey_id", surveyID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load resident profile: %w", err)
	}
	if programID == "" || department == "" {
		slog.Warn("rollup skipped: profile incomplete", "survey_id", surveyID)
		return nil
	}

	// Step 2: week key derivation, from the day key when it parses,
	// otherwise from the creation instant
	wk, err := weekkey.FromDayKey(dayKey)
	if err != nil {
		wk = weekkey.FromTime(createdAt)
	}

	// Step 3: mirror upsert. Same key, same content: redelivery idempotent.
	mirror := models.SurveyMirror{
		ProgramID:  programID,
		SurveyID:   surveyID,
		Department: department,
		Score:      score,
		DayKey:     dayKey,
		WeekKey:    wk,
		CreatedAt:  createdAt,
	}
	_, err = p.db.Exec(`
		INSERT INTO survey_mirror (program_id, survey_id, department, score, day_key, week_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (program_id, survey_id) DO UPDATE SET
			department = EXCLUDED.department,
			score = EXCLUDED.score,
			day_key = EXCLUDED.day_key,
			week_key = EXCLUDED.week_key
	`, mirror.ProgramID, mirror.SurveyID, mirror.Department, mirror.Score, mirror.DayKey, mirror.WeekKey, mirror.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert mirror for survey %s: %w", surveyID, err)
	}

	// Step 4: aggregate fold, bounded optimistic retry
	for attempt := 1; attempt <= maxFoldAttempts; attempt++ {
		folded, err := p.fold(programID, department, wk, surveyID, score)
		if err == nil {
			if folded {
				slog.Info("survey folded into aggregate",
					"survey_id", surveyID,
					"program_id", programID,
					"department", department,
					"week_key", wk,
				)
			}
			return nil
		}
		if !retryable(err) {
			return fmt.Errorf("failed to fold survey %s: %w", surveyID, err)
		}
		slog.Warn("aggregate contention, retrying", "survey_id", surveyID, "attempt", attempt, "error", err)
	}

	return fmt.Errorf("%w: survey %s after %d attempts", ErrAggregateUpdateFailed, surveyID, maxFoldAttempts)
}

// fold runs one attempt of the apply-once ledger insert plus the
// read-modify-write of the weekly aggregate, all in a single transaction.
// Returns false when the survey was already folded.
func (p *Processor) fold(programID, department, wk, surveyID string, score int) (bool, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO aggregate_entry (program_id, survey_id, department, week_key, folded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (program_id, survey_id) DO NOTHING
	`, programID, surveyID, department, wk, time.Now())
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		// Already folded: redelivery must not double-count
		return false, nil
	}

	// Make sure the aggregate row exists before locking it. FOR UPDATE on
	// a nonexistent row locks nothing, so two folds racing to create the
	// same week would both take the init path and the loser's write-back
	// would clobber the winner's. The sentinel row gives every fold a real
	// lock target.
	_, err = tx.Exec(`
		INSERT INTO weekly_aggregate (program_id, department, week_key, total, count, avg, score_min, score_max, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, $4, $5, $6)
		ON CONFLICT (program_id, department, week_key) DO NOTHING
	`, programID, department, wk, models.AggregateMinSentinel, models.AggregateMaxSentinel, time.Now())
	if err != nil {
		return false, err
	}

	var total, count, scoreMin, scoreMax int
	err = tx.QueryRow(`
		SELECT total, count, score_min, score_max
		FROM weekly_aggregate
		WHERE program_id = $1 AND department = $2 AND week_key = $3
		FOR UPDATE
	`, programID, department, wk).Scan(&total, &count, &scoreMin, &scoreMax)
	if err != nil {
		return false, err
	}

	total += score
	count++
	avg := float64(total) / float64(count)
	if score < scoreMin {
		scoreMin = score
	}
	if score > scoreMax {
		scoreMax = score
	}

	_, err = tx.Exec(`
		UPDATE weekly_aggregate
		SET total = $4, count = $5, avg = $6, score_min = $7, score_max = $8, updated_at = $9
		WHERE program_id = $1 AND department = $2 AND week_key = $3
	`, programID, department, wk, total, count, avg, scoreMin, scoreMax, time.Now())
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// Sweep finds surveys with no ledger entry and processes them. Covers
// crashes between submission commit and the in-process hand-off, and
// surveys whose resident profile was incomplete at submission time.
// Incomplete profiles are filtered out here rather than re-offered:
// they would be no-ops anyway, and being the oldest rows they would
// otherwise pin the batch and starve newer unfolded surveys.
// Returns how many surveys were offered.
func (p *Processor) Sweep() (int, error) {
	rows, err := p.db.Query(`
		SELECT s.id
		FROM survey s
		JOIN resident r ON r.id = s.resident_id
		LEFT JOIN aggregate_entry e ON e.program_id = r.program_id AND e.survey_id = s.id
		WHERE e.survey_id IS NULL AND r.department <> ''
		ORDER BY s.created_at
		LIMIT $1
	`, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to scan for unfolded surveys: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan survey id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := p.Process(id); err != nil {
			// Leave it for the next sweep
			slog.Error("sweep failed to process survey", "survey_id", id, "error", err)
		}
	}

	return len(ids), nil
}

// retryable reports whether a fold error is worth another attempt:
// serialization failures and deadlocks.
func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "40001", "40P01":
			return true
		}
	}
	return false
}
