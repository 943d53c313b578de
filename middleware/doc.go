// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Request Logging

WithLogging wraps a handler with slog-based request/completion logging:

	mux.HandleFunc("POST /surveys", middleware.WithLogging(h.Submit))

# JSON Helpers

Response and parsing helpers used by every handler:

	middleware.JSONResponse(w, http.StatusOK, payload)
	middleware.ErrorResponse(w, http.StatusNotFound, "Program not found")
	middleware.CodedErrorResponse(w, http.StatusConflict,
		models.CodeAlreadySubmittedToday, "Survey already submitted today")
	err := middleware.ParseJSONBody(r, &req)

CodedErrorResponse exists because "already submitted today" and
"profile incomplete" must be distinguishable from generic conflicts:
clients branch on the code field, not on message text.

# CORS

The CORS middleware allows cross-origin requests from the dashboard and
handles OPTIONS preflight, including the custom auth headers
(X-Manager-Key, X-Resident-Token).

# Client IP

GetClientIP resolves the submitting client's IP through X-Forwarded-For
and X-Real-IP before falling back to RemoteAddr. The IP is only ever
stored salted-and-hashed (see auth.HashIP).
*/
package middleware
