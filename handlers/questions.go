// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jagbag/dvoting/auth"
	"github.com/jagbag/dvoting/cliparse"
	"github.com/jagbag/dvoting/ctf"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/middleware"
	"github.com/jagbag/dvoting/models"
)

type QuestionHandler struct {
	facility *ctf.Facility
	store    *db.Store
	cfg      cliparse.Config
}

func NewQuestionHandler(facility *ctf.Facility, store *db.Store, cfg cliparse.Config) *QuestionHandler {
	return &QuestionHandler{facility: facility, store: store, cfg: cfg}
}

// requireAdmin validates the X-Admin-Key header.
func requireAdmin(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(auth.AdminRealm, adminKey, cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

func validCountingType(t string) bool {
	return t == models.TypeSingle || t == models.TypeMultiple || t == models.TypeRankedChoice
}

// buildOptions turns option labels into ResponseOption rows, rejecting
// duplicates: a question's options are an ordered list of distinct labels.
func buildOptions(questionID string, labels []string) ([]models.ResponseOption, bool) {
	seen := map[string]bool{}
	options := make([]models.ResponseOption, 0, len(labels))
	for i, label := range labels {
		if label == "" || seen[label] {
			return nil, false
		}
		seen[label] = true
		optID, err := auth.GenerateID(12)
		if err != nil {
			return nil, false
		}
		options = append(options, models.ResponseOption{
			ID:         optID,
			QuestionID: questionID,
			Label:      label,
			Position:   i,
		})
	}
	return options, true
}

// CreateQuestion handles POST /questions
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}

	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Text == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Type == "" {
		req.Type = models.TypeSingle
	}
	if !validCountingType(req.Type) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "type must be SINGLE, MULTIPLE, or RANKED_CHOICE")
		return
	}
	if len(req.Options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least 2 options are required")
		return
	}

	questionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate question ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	options, ok := buildOptions(questionID, req.Options)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "options must be distinct and non-empty")
		return
	}

	q := models.Question{
		ID:        questionID,
		Text:      req.Text,
		Type:      req.Type,
		CreatedAt: time.Now(),
		Options:   options,
	}
	if err := h.store.CreateQuestion(q); err != nil {
		slog.Error("failed to insert question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	slog.Info("question created", "question_id", questionID, "type", req.Type)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateQuestionResponse{
		QuestionID: questionID,
	})
}

// ListQuestions handles GET /questions
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}

	questions, err := h.store.ListQuestions()
	if err != nil {
		slog.Error("failed to query questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	infos := make([]models.QuestionInfo, 0, len(questions))
	for _, q := range questions {
		infos = append(infos, models.NewQuestionInfo(q))
	}
	middleware.JSONResponse(w, http.StatusOK, infos)
}

// GetQuestion handles GET /questions/{id}
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}

	q, err := h.facility.LookupQuestion(r.PathValue("id"))
	if err == db.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewQuestionInfo(q))
}

// UpdateQuestion handles PUT /questions/{id}. Only NEW questions are
// editable; once posted, a question's text and options are locked forever.
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}
	questionID := r.PathValue("id")

	var req models.UpdateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Text == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Type == "" {
		req.Type = models.TypeSingle
	}
	if !validCountingType(req.Type) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "type must be SINGLE, MULTIPLE, or RANKED_CHOICE")
		return
	}
	if len(req.Options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least 2 options are required")
		return
	}

	q, err := h.store.GetQuestion(questionID)
	if err == db.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !q.CanEdit() {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot edit a question that has been posted")
		return
	}

	options, ok := buildOptions(questionID, req.Options)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "options must be distinct and non-empty")
		return
	}

	q.Text = req.Text
	q.Type = req.Type
	q.Options = options
	if err := h.store.UpdateQuestion(q); err != nil {
		slog.Error("failed to update question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	slog.Info("question updated", "question_id", questionID)
	middleware.JSONResponse(w, http.StatusOK, models.NewQuestionInfo(q))
}

// DeleteQuestion handles DELETE /questions/{id}. Only NEW questions may be
// deleted; anything ever put to a vote is kept for posterity.
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}
	questionID := r.PathValue("id")

	q, err := h.store.GetQuestion(questionID)
	if err == db.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !q.CanDelete() {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot delete a question that has been posted")
		return
	}

	if err := h.store.DeleteQuestion(questionID); err != nil {
		slog.Error("failed to delete question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete question")
		return
	}

	slog.Info("question deleted", "question_id", questionID)
	w.WriteHeader(http.StatusNoContent)
}

// PostQuestion handles POST /questions/{id}/post
func (h *QuestionHandler) PostQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}
	questionID := r.PathValue("id")

	q, err := h.facility.PostQuestion(questionID)
	switch err {
	case nil:
	case db.ErrNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	case ctf.ErrInvalidTransition:
		middleware.ErrorResponse(w, http.StatusConflict, "Question is not in the new state")
		return
	default:
		slog.Error("failed to post question", "question_id", questionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post question")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewQuestionInfo(q))
}

// CloseQuestion handles POST /questions/{id}/close
func (h *QuestionHandler) CloseQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg) {
		return
	}
	questionID := r.PathValue("id")

	q, err := h.facility.CloseQuestion(questionID)
	switch err {
	case nil:
	case db.ErrNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	case ctf.ErrInvalidTransition:
		middleware.ErrorResponse(w, http.StatusConflict, "Question is not polling")
		return
	default:
		slog.Error("failed to close question", "question_id", questionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close question")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewQuestionInfo(q))
}
