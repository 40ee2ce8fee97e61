// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jagbag/dvoting/auth"
	"github.com/jagbag/dvoting/cliparse"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/middleware"
	"github.com/jagbag/dvoting/models"
)

type VoterHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewVoterHandler(store *db.Store, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{store: store, cfg: cfg}
}

// Register handles POST /voters/register. Anyone may register; the voter
// cannot request chits until an administrator marks them allowed to vote.
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	token, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	voter := models.Voter{
		Username:      req.Username,
		Token:         token,
		AllowedToVote: false,
		CreatedAt:     time.Now(),
	}
	if err := h.store.CreateVoter(voter); err == db.ErrDuplicate {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already registered")
		return
	} else if err != nil {
		slog.Error("failed to insert voter", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	slog.Info("voter registered", "username", req.Username)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVoterResponse{
		Username:   req.Username,
		VoterToken: token,
	})
}

// List handles GET /voters
func (h *VoterHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}

	voters, err := h.store.ListVoters()
	if err != nil {
		slog.Error("failed to query voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, voters)
}

// Allow handles POST /voters/{username}/allow
func (h *VoterHandler) Allow(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}
	username := r.PathValue("username")

	err := h.store.SetAllowedToVote(username, true)
	if err == db.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Voter not found")
		return
	}
	if err != nil {
		slog.Error("failed to update voter", "username", username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update voter")
		return
	}

	slog.Info("voter allowed to vote", "username", username)
	w.WriteHeader(http.StatusNoContent)
}
