// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package weekkey derives the day and week keys that bucket survey data.

# Day Keys

A day key is the submitter's calendar date, formatted YYYY-MM-DD:

	dayKey := weekkey.DayKey(time.Now())

Day keys are the natural idempotency key for once-per-day submission:
the survey table enforces UNIQUE (resident_id, day_key).

# Week Keys

A week key is an ISO 8601 week identifier, formatted YYYY-Www:

	weekKey := weekkey.FromTime(time.Now())     // from an instant
	weekKey, err := weekkey.FromDayKey(dayKey)  // from a day key

ISO week numbering is Monday-start; week 1 is the week containing the
year's first Thursday. Dates near January 1 can therefore belong to a
different week-year than their calendar year (2024-12-31 is in 2025-W01).

Week keys are zero-padded so lexicographic order equals chronological
order, which lets the dashboard filter aggregates with plain string
comparison (week_key BETWEEN $1 AND $2).
*/
package weekkey
