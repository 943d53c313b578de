// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rollup folds newly created surveys into program-level anonymized
state: the survey_mirror collection and the weekly_aggregate rollup.

# Pipeline

Process runs one survey through four steps:

 1. Context resolution: load the resident's profile. Missing or incomplete
    (empty program or department) profiles are a silent no-op; profile
    completion is eventually consistent and the sweep retries later.
 2. Week key derivation: ISO 8601 week key from the survey's day key
    (falling back to the creation instant if the day key won't parse).
 3. Mirror upsert: ON CONFLICT merge-upsert keyed (program_id, survey_id).
    Same key, same content - naturally idempotent under redelivery.
 4. Aggregate fold: one transaction inserts the survey id into the
    apply-once ledger (aggregate_entry) and read-modify-writes the weekly
    aggregate. A ledger conflict means the survey was already folded and
    the aggregate is left untouched.

The state machine per survey is

	Created → ContextResolved → MirrorWritten → AggregateUpdated

with any failure before ContextResolved a terminal no-op, and a failure
between MirrorWritten and AggregateUpdated safe to retry to completion.

# Delivery

Delivery is at-least-once: handlers invoke Process synchronously after the
submission transaction commits, and a cron-scheduled Sweep re-offers any
survey whose ledger entry is missing. The ledger makes the aggregate
mutation exactly-once-effective regardless of how often a survey is
delivered.

# Aggregate Semantics

A fresh aggregate starts at {total: 0, count: 0, min: 999, max: -999};
the sentinels are clamped by the first real score. Every fold recomputes
avg as total/count rather than storing it independently, so avg can never
drift. The transaction reads the current row FOR UPDATE, retries up to 3
times on serialization failure, deadlock, or a creation race, and then
surfaces ErrAggregateUpdateFailed, leaving the survey for the next sweep.
*/
package rollup
