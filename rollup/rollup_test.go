// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollup

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prevworks/prevworks/testutil"
)

func readAggregate(t *testing.T, db *sql.DB, programID, department, wk string) (total, count int, avg float64, min, max int) {
	t.Helper()
	err := db.QueryRow(`
		SELECT total, count, avg, score_min, score_max
		FROM weekly_aggregate
		WHERE program_id = $1 AND department = $2 AND week_key = $3
	`, programID, department, wk).Scan(&total, &count, &avg, &min, &max)
	require.NoError(t, err)
	return
}

func TestProcessFoldsAggregate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	programID, _ := testutil.CreateTestProgram(t, db, cfg, "Internal Medicine Residency")
	residentID, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")

	proc := NewProcessor(db)

	// 2025-06-10 is a Tuesday in ISO week 2025-W24
	surveyID := testutil.InsertTestSurvey(t, db, residentID, "2025-06-10", [5]int{3, 2, 4, 1, 5})
	require.NoError(t, proc.Process(surveyID))

	total, count, avg, min, max := readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 15, total)
	assert.Equal(t, 1, count)
	assert.Equal(t, 15.0, avg)
	assert.Equal(t, 15, min)
	assert.Equal(t, 15, max)

	// Mirror row exists under the survey ID with no resident reference
	var mirrorDept, mirrorWeek string
	var mirrorScore int
	err := db.QueryRow(`
		SELECT department, score, week_key FROM survey_mirror
		WHERE program_id = $1 AND survey_id = $2
	`, programID, surveyID).Scan(&mirrorDept, &mirrorScore, &mirrorWeek)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", mirrorDept)
	assert.Equal(t, 15, mirrorScore)
	assert.Equal(t, "2025-W24", mirrorWeek)

	// Second resident, same department and week
	otherID, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")
	secondSurvey := testutil.InsertTestSurvey(t, db, otherID, "2025-06-11", [5]int{4, 4, 4, 4, 4})
	require.NoError(t, proc.Process(secondSurvey))

	total, count, avg, min, max = readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 35, total)
	assert.Equal(t, 2, count)
	assert.Equal(t, 17.5, avg)
	assert.Equal(t, 15, min)
	assert.Equal(t, 20, max)
}

func TestProcessRedeliveryDoesNotDoubleCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	programID, _ := testutil.CreateTestProgram(t, db, cfg, "Internal Medicine Residency")
	residentID, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")

	proc := NewProcessor(db)
	surveyID := testutil.InsertTestSurvey(t, db, residentID, "2025-06-10", [5]int{3, 2, 4, 1, 5})

	require.NoError(t, proc.Process(surveyID))
	require.NoError(t, proc.Process(surveyID))
	require.NoError(t, proc.Process(surveyID))

	total, count, avg, min, max := readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 15, total)
	assert.Equal(t, 1, count)
	assert.Equal(t, 15.0, avg)
	assert.Equal(t, 15, min)
	assert.Equal(t, 15, max)

	var mirrors int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM survey_mirror WHERE program_id = $1`, programID).Scan(&mirrors))
	assert.Equal(t, 1, mirrors)
}

func TestProcessDepartmentsAggregateSeparately(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	programID, _ := testutil.CreateTestProgram(t, db, cfg, "Internal Medicine Residency")
	cardioID, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")
	neuroID, _ := testutil.CreateTestResident(t, db, programID, "Neurology")

	proc := NewProcessor(db)
	require.NoError(t, proc.Process(testutil.InsertTestSurvey(t, db, cardioID, "2025-06-10", [5]int{2, 2, 2, 2, 2})))
	require.NoError(t, proc.Process(testutil.InsertTestSurvey(t, db, neuroID, "2025-06-10", [5]int{5, 5, 5, 5, 5})))

	_, count, avg, _, _ := readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 1, count)
	assert.Equal(t, 10.0, avg)

	_, count, avg, _, _ = readAggregate(t, db, programID, "Neurology", "2025-W24")
	assert.Equal(t, 1, count)
	assert.Equal(t, 25.0, avg)
}

func TestProcessIncompleteProfileIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	programID, _ := testutil.CreateTestProgram(t, db, cfg, "Internal Medicine Residency")
	residentID, _ := testutil.CreateTestResident(t, db, programID, "")

	proc := NewProcessor(db)
	surveyID := testutil.InsertTestSurvey(t, db, residentID, "2025-06-10", [5]int{3, 2, 4, 1, 5})

	// No error, but nothing folded
	require.NoError(t, proc.Process(surveyID))

	var entries int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM aggregate_entry`).Scan(&entries))
	assert.Equal(t, 0, entries)

	var aggregates int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM weekly_aggregate`).Scan(&aggregates))
	assert.Equal(t, 0, aggregates)

	// The sweep skips the survey while the profile is incomplete, so it
	// cannot pin the batch ahead of foldable work
	offered, err := proc.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, offered)

	// Once the profile is completed, the sweep offers the survey
	_, err = db.Exec(`UPDATE resident SET department = 'Cardiology' WHERE id = $1`, residentID)
	require.NoError(t, err)

	offered, err = proc.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, offered)

	total, count, _, _, _ := readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 15, total)
	assert.Equal(t, 1, count)
}

func TestProcessUnknownSurvey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	proc := NewProcessor(db)
	assert.Error(t, proc.Process("no-such-survey"))
}

func TestSweepCatchesUnfoldedSurveys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	programID, _ := testutil.CreateTestProgram(t, db, cfg, "Internal Medicine Residency")
	residentA, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")
	residentB, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")

	// Surveys written with no hand-off, as after a crash
	testutil.InsertTestSurvey(t, db, residentA, "2025-06-10", [5]int{3, 2, 4, 1, 5})
	testutil.InsertTestSurvey(t, db, residentB, "2025-06-10", [5]int{4, 4, 4, 4, 4})

	proc := NewProcessor(db)
	offered, err := proc.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, offered)

	total, count, avg, min, max := readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 35, total)
	assert.Equal(t, 2, count)
	assert.Equal(t, 17.5, avg)
	assert.Equal(t, 15, min)
	assert.Equal(t, 20, max)

	// A second sweep finds nothing left to do
	offered, err = proc.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, offered)
}

func TestWeekBoundarySplitsAggregates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	programID, _ := testutil.CreateTestProgram(t, db, cfg, "Internal Medicine Residency")
	residentID, _ := testutil.CreateTestResident(t, db, programID, "Cardiology")

	proc := NewProcessor(db)
	// Sunday 2025-06-15 closes 2025-W24; Monday 2025-06-16 opens 2025-W25
	require.NoError(t, proc.Process(testutil.InsertTestSurvey(t, db, residentID, "2025-06-15", [5]int{2, 2, 2, 2, 2})))
	require.NoError(t, proc.Process(testutil.InsertTestSurvey(t, db, residentID, "2025-06-16", [5]int{3, 3, 3, 3, 3})))

	_, count, avg, _, _ := readAggregate(t, db, programID, "Cardiology", "2025-W24")
	assert.Equal(t, 1, count)
	assert.Equal(t, 10.0, avg)

	_, count, avg, _, _ = readAggregate(t, db, programID, "Cardiology", "2025-W25")
	assert.Equal(t, 1, count)
	assert.Equal(t, 15.0, avg)
}
