// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Residency programs
CREATE TABLE IF NOT EXISTS program (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

-- Resident profiles (the profile store: program + department per resident)
CREATE TABLE IF NOT EXISTS resident (
    id TEXT PRIMARY KEY,
    program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
    department TEXT NOT NULL,
    display_name TEXT,
    resident_token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_resident_program_id ON resident(program_id);
CREATE INDEX IF NOT EXISTS idx_resident_token ON resident(resident_token);

-- WHO-5 surveys, one per (resident, calendar day). Immutable after creation;
-- the UNIQUE constraint is what makes submission create-only.
CREATE TABLE IF NOT EXISTS survey (
    id TEXT PRIMARY KEY,
    resident_id TEXT NOT NULL REFERENCES resident(id) ON DELETE CASCADE,
    day_key TEXT NOT NULL,
    answer1 INTEGER NOT NULL CHECK (answer1 >= 0 AND answer1 <= 5),
    answer2 INTEGER NOT NULL CHECK (answer2 >= 0 AND answer2 <= 5),
    answer3 INTEGER NOT NULL CHECK (answer3 >= 0 AND answer3 <= 5),
    answer4 INTEGER NOT NULL CHECK (answer4 >= 0 AND answer4 <= 5),
    answer5 INTEGER NOT NULL CHECK (answer5 >= 0 AND answer5 <= 5),
    score INTEGER NOT NULL CHECK (score >= 0 AND score <= 25),
    ip_hash TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (resident_id, day_key)
);

CREATE INDEX IF NOT EXISTS idx_survey_resident_day ON survey(resident_id, day_key);

-- Anonymized mirror records: one per source survey, no resident identity.
CREATE TABLE IF NOT EXISTS survey_mirror (
    program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
    survey_id TEXT NOT NULL,
    department TEXT NOT NULL,
    score INTEGER NOT NULL,
    day_key TEXT NOT NULL,
    week_key TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (program_id, survey_id)
);

CREATE INDEX IF NOT EXISTS idx_survey_mirror_week ON survey_mirror(program_id, week_key);

-- Weekly department aggregates, mutated only inside the rollup transaction.
CREATE TABLE IF NOT EXISTS weekly_aggregate (
    program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
    department TEXT NOT NULL,
    week_key TEXT NOT NULL,
    total INTEGER NOT NULL,
    count INTEGER NOT NULL,
    avg DOUBLE PRECISION NOT NULL,
    score_min INTEGER NOT NULL,
    score_max INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (program_id, department, week_key)
);

CREATE INDEX IF NOT EXISTS idx_weekly_aggregate_week ON weekly_aggregate(program_id, week_key);

-- Apply-once ledger: a survey id lands here in the same transaction that
-- folds its score into weekly_aggregate, so redelivery is a no-op.
CREATE TABLE IF NOT EXISTS aggregate_entry (
    program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
    survey_id TEXT NOT NULL,
    department TEXT NOT NULL,
    week_key TEXT NOT NULL,
    folded_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (program_id, survey_id)
);

CREATE INDEX IF NOT EXISTS idx_aggregate_entry_survey ON aggregate_entry(survey_id);

-- CG-CAHPS uploads
CREATE TABLE IF NOT EXISTS cahps_upload (
    id TEXT PRIMARY KEY,
    program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
    row_count INTEGER NOT NULL,
    uploaded_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cahps_measure (
    id TEXT PRIMARY KEY,
    upload_id TEXT NOT NULL REFERENCES cahps_upload(id) ON DELETE CASCADE,
    program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
    department TEXT NOT NULL,
    measure TEXT NOT NULL,
    period TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    responses INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cahps_measure_program ON cahps_measure(program_id, period);
`
