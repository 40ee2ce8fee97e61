// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers.

# Request Logging

WithLogging wraps handlers with slog-based request/completion logging:

	mux.HandleFunc("POST /ballots/{id}/vote", middleware.WithLogging(handler.SubmitVote))

The access log records method, path, and timing only. Request bodies are
never logged: chit contents next to a remote address would undo the
anonymity the signing protocol provides.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	err := middleware.ParseJSONBody(r, &req)

# CORS

CORS allows cross-origin requests from the voting client, including the
X-Admin-Key and X-Voter-Token headers, and answers preflight requests.
*/
package middleware
