// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 4517)
  - DatabaseURL: PostgreSQL connection string (required)
  - ManagerKeySalt: Secret for manager key HMAC (required)
  - SweepSchedule: Rollup sweep cadence, cron format (default: @every 1m)

# CLI Flags

	-p             Server port
	-d             Database URL
	--manager-salt Manager key salt
	--sweep        Rollup sweep schedule

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	MANAGER_KEY_SALT → --manager-salt
	SWEEP_SCHEDULE   → --sweep

CLI flags take precedence over environment variables. main loads a .env
file (via godotenv) before parsing, so local development can keep all of
these in one place.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - MANAGER_KEY_SALT must be provided
*/
package cliparse
