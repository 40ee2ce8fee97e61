// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/jagbag/dvoting/cliparse"
	"github.com/jagbag/dvoting/ctf"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/handlers"
	"github.com/jagbag/dvoting/middleware"
)

func NewRouter(facility *ctf.Facility, store *db.Store, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	questionHandler := handlers.NewQuestionHandler(facility, store, cfg)
	voterHandler := handlers.NewVoterHandler(store, cfg)
	votingHandler := handlers.NewVotingHandler(facility, store, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Question management (admin operations)
	mux.HandleFunc("POST /questions", middleware.WithLogging(questionHandler.CreateQuestion))
	mux.HandleFunc("GET /questions", middleware.WithLogging(questionHandler.ListQuestions))
	mux.HandleFunc("GET /questions/{id}", middleware.WithLogging(questionHandler.GetQuestion))
	mux.HandleFunc("PUT /questions/{id}", middleware.WithLogging(questionHandler.UpdateQuestion))
	mux.HandleFunc("DELETE /questions/{id}", middleware.WithLogging(questionHandler.DeleteQuestion))
	mux.HandleFunc("POST /questions/{id}/post", middleware.WithLogging(questionHandler.PostQuestion))
	mux.HandleFunc("POST /questions/{id}/close", middleware.WithLogging(questionHandler.CloseQuestion))

	// Voter registry
	mux.HandleFunc("POST /voters/register", middleware.WithLogging(voterHandler.Register))
	mux.HandleFunc("GET /voters", middleware.WithLogging(voterHandler.List))
	mux.HandleFunc("POST /voters/{username}/allow", middleware.WithLogging(voterHandler.Allow))

	// Chit issuance (requires X-Voter-Token)
	mux.HandleFunc("GET /ballots/keys", middleware.WithLogging(votingHandler.GetKeys))
	mux.HandleFunc("GET /ballots", middleware.WithLogging(votingHandler.ListBallots))
	mux.HandleFunc("POST /ballots/{id}/sign", middleware.WithLogging(votingHandler.SignChit))
	mux.HandleFunc("POST /ballots/{id}/signme", middleware.WithLogging(votingHandler.SignMeChit))

	// Vote intake and verification (anonymous, no token)
	mux.HandleFunc("POST /ballots/{id}/vote", middleware.WithLogging(votingHandler.SubmitVote))
	mux.HandleFunc("POST /ballots/{id}/vote-rank", middleware.WithLogging(votingHandler.SubmitRankedVotes))
	mux.HandleFunc("GET /ballots/{id}/verify", middleware.WithLogging(votingHandler.Verify))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dvoting CTF API v1"))
	})

	return mux
}
