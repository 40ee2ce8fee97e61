// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the dvoting CTF API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(facility, store, cfg)

# Endpoints

Health:

	GET /health

Question management (admin, requires X-Admin-Key):

	POST   /questions            - Create question
	GET    /questions            - List questions
	GET    /questions/{id}       - Question detail
	PUT    /questions/{id}       - Edit question (new only)
	DELETE /questions/{id}       - Delete question (new only)
	POST   /questions/{id}/post  - Open for voting
	POST   /questions/{id}/close - Stop accepting votes

Voter registry:

	POST /voters/register        - Register (public)
	GET  /voters                 - List voters (admin)
	POST /voters/{username}/allow - Approve voter (admin)

Chit issuance (requires X-Voter-Token):

	GET  /ballots/keys          - Facility public key
	GET  /ballots               - Polling questions with their keys
	POST /ballots/{id}/sign     - Blind-sign a response chit
	POST /ballots/{id}/signme   - Blind-sign the me chit

Vote intake and verification (anonymous):

	POST /ballots/{id}/vote      - Submit one vote message
	POST /ballots/{id}/vote-rank - Submit a ranked ballot
	GET  /ballots/{id}/verify    - Accepted votes for recounting

# Handler Initialization

The router creates handler instances with dependency injection:

	questionHandler := handlers.NewQuestionHandler(facility, store, cfg)
	voterHandler := handlers.NewVoterHandler(store, cfg)
	votingHandler := handlers.NewVotingHandler(facility, store, cfg)

Vote intake routes deliberately pass through no authentication
middleware; a vote is authorized by its chit signatures alone.
*/
package router
