// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the PrevWORKS API server.

PrevWORKS is a well-being tracking service for medical residency
programs. Residents answer the five WHO-5 questions once per day; the
service mirrors each submission into an anonymized copy and folds it
into a per-program, per-department weekly aggregate that program
managers read from a dashboard.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 4517 -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - MANAGER_KEY_SALT (--manager-salt): Secret for manager key HMAC

Optional settings:

  - PORT (-p): Server port (default: 4517)
  - SWEEP_SCHEDULE (--sweep): Cron spec for the rollup catch-up sweep
    (default: @every 1m)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (surveys, programs, residents, reports, CG-CAHPS)
  - rollup: Mirror writes and weekly aggregate folding
  - weekkey: ISO-8601 day and week key derivation
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Token generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
