// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jagbag/dvoting/cliparse"
	"github.com/jagbag/dvoting/ctf"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/middleware"
	"github.com/jagbag/dvoting/models"
)

type VotingHandler struct {
	facility *ctf.Facility
	store    *db.Store
	cfg      cliparse.Config
}

func NewVotingHandler(facility *ctf.Facility, store *db.Store, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{facility: facility, store: store, cfg: cfg}
}

// voterFromToken resolves the X-Voter-Token header to a registered voter.
// A missing or unknown token yields nil; the facility treats nil voters as
// ineligible, so chit endpoints reject them uniformly without revealing
// whether the token exists.
func (h *VotingHandler) voterFromToken(r *http.Request) *models.Voter {
	token := r.Header.Get("X-Voter-Token")
	if token == "" {
		return nil
	}
	voter, err := h.store.GetVoterByToken(token)
	if err != nil {
		if err != db.ErrNotFound {
			slog.Error("failed to look up voter token", "error", err)
		}
		return nil
	}
	return &voter
}

// statusForOutcome maps vote intake outcomes onto HTTP statuses.
func statusForOutcome(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeOK:
		return http.StatusOK
	case models.OutcomeMalformed:
		return http.StatusBadRequest
	case models.OutcomeNotFound:
		return http.StatusNotFound
	case models.OutcomeClosed:
		return http.StatusGone
	case models.OutcomeRankRejected, models.OutcomeInvalidSignature:
		return http.StatusForbidden
	case models.OutcomeContradictory:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetKeys handles GET /ballots/keys. The response chit key is public
// knowledge; anyone may fetch it to verify signatures.
func (h *VotingHandler) GetKeys(w http.ResponseWriter, r *http.Request) {
	modulus, exponent := h.facility.PublicKey()
	middleware.JSONResponse(w, http.StatusOK, models.PublicKeyResponse{
		ModulusStr:  modulus,
		ExponentStr: exponent,
	})
}

// ListBallots handles GET /ballots: every currently polling question, each
// with the public half of its me-chit key.
func (h *VotingHandler) ListBallots(w http.ResponseWriter, r *http.Request) {
	if h.voterFromToken(r) == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.facility.VotableQuestions())
}

// SignChit handles POST /ballots/{id}/sign: blind-sign a response chit with
// the facility key, subject to the voter's per-question quota.
func (h *VotingHandler) SignChit(w http.ResponseWriter, r *http.Request) {
	h.signWith(w, r, h.facility.SignResponseChit)
}

// SignMeChit handles POST /ballots/{id}/signme: blind-sign the voter's one
// me chit for this question with the question's own key.
func (h *VotingHandler) SignMeChit(w http.ResponseWriter, r *http.Request) {
	h.signWith(w, r, h.facility.SignMeChit)
}

func (h *VotingHandler) signWith(w http.ResponseWriter, r *http.Request, sign func(string, *models.Voter, string) (string, error)) {
	questionID := r.PathValue("id")

	var req models.SignChitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.BlindedChit == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "blinded_chit is required")
		return
	}

	voter := h.voterFromToken(r)
	signed, err := sign(req.BlindedChit, voter, questionID)
	switch err {
	case nil:
	case ctf.ErrIneligibleVoter:
		middleware.ErrorResponse(w, http.StatusForbidden, "Not allowed to vote")
		return
	case db.ErrNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	case ctf.ErrNotPolling:
		middleware.ErrorResponse(w, http.StatusGone, "Question is not polling")
		return
	case ctf.ErrQuotaExceeded:
		middleware.ErrorResponse(w, http.StatusForbidden, "Chit quota exhausted for this question")
		return
	case ctf.ErrChitMismatch:
		middleware.ErrorResponse(w, http.StatusForbidden, "A different me chit was already signed for this question")
		return
	case ctf.ErrMalformedChit:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Blinded chit is not a valid number")
		return
	default:
		slog.Error("failed to sign chit", "question_id", questionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign chit")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SignChitResponse{
		SignedChit: signed,
	})
}

// SubmitVote handles POST /ballots/{id}/vote. No voter token is required:
// a vote carries chits, not identity.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")

	var msg models.VoteMessage
	if err := middleware.ParseJSONBody(r, &msg); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	outcome := h.facility.ReceiveVote(questionID, msg)
	middleware.JSONResponse(w, statusForOutcome(outcome), models.SubmitVoteResponse{
		Outcome: outcome,
	})
}

// SubmitRankedVotes handles POST /ballots/{id}/vote-rank: a full ranked
// ballot delivered as an ordered list of vote messages. Messages are
// accepted in order; the first one that does not come back OK stops the
// batch, and its index is reported so the client can resume.
func (h *VotingHandler) SubmitRankedVotes(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")

	var msgs []models.VoteMessage
	if err := middleware.ParseJSONBody(r, &msgs); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(msgs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "At least one vote message is required")
		return
	}

	for i, msg := range msgs {
		if outcome := h.facility.ReceiveVote(questionID, msg); outcome != models.OutcomeOK {
			middleware.JSONResponse(w, statusForOutcome(outcome), models.SubmitRankedVotesResponse{
				Outcome:     outcome,
				FailedIndex: i,
			})
			return
		}
	}
	middleware.JSONResponse(w, http.StatusOK, models.SubmitRankedVotesResponse{
		Outcome:     models.OutcomeOK,
		FailedIndex: -1,
	})
}

// Verify handles GET /ballots/{id}/verify: the accepted votes for a
// question, chit numbers included, so any voter can confirm their own vote
// was recorded and recount the tally themselves.
func (h *VotingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")

	votes, err := h.facility.Tally(questionID)
	if err == db.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to tally votes", "question_id", questionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, votes)
}
