// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema

CreateSchema creates all tables (idempotent, IF NOT EXISTS):

	err := db.CreateSchema(dbConn)

# Tables

  - program: residency programs
  - resident: resident profiles (program_id, department, bearer token)
  - survey: WHO-5 submissions; UNIQUE (resident_id, day_key) enforces
    one survey per resident per calendar day at the database level
  - survey_mirror: de-identified survey copies, PK (program_id, survey_id),
    written with ON CONFLICT merge-upsert so re-application is harmless
  - weekly_aggregate: running sum/count/avg/min/max per
    (program, department, ISO week)
  - aggregate_entry: apply-once ledger of folded survey ids; inserted in
    the same transaction as the aggregate mutation
  - cahps_upload, cahps_measure: CG-CAHPS patient-experience uploads

# Consistency Constraints

Two tables carry the pipeline's correctness guarantees:

survey's UNIQUE constraint turns a duplicate same-day submission into a
unique-violation error (Postgres class 23505) instead of racing a separate
existence check.

aggregate_entry's primary key turns rollup redelivery into a conflict the
processor treats as "already folded", keeping weekly_aggregate counts exact
under at-least-once delivery.
*/
package db
