// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the dvoting CTF API.

# Handler Types

Each handler is a struct with facility, store, and config dependencies:

  - QuestionHandler: Question lifecycle (create, edit, post, close)
  - VoterHandler: Voter registration and approval
  - VotingHandler: Chit issuance, vote intake, verification

Handlers are created via constructor functions:

	questionHandler := handlers.NewQuestionHandler(facility, store, cfg)

# Question Lifecycle

Questions progress through three states: new → polling → closed

	POST   /questions            → CreateQuestion
	PUT    /questions/{id}       → UpdateQuestion (new only)
	DELETE /questions/{id}       → DeleteQuestion (new only)
	POST   /questions/{id}/post  → PostQuestion (generates the question key)
	POST   /questions/{id}/close → CloseQuestion (discards the question key)

Admin operations require the X-Admin-Key header.

# Chit Issuance

Registered, approved voters request blind signatures:

	POST /ballots/{id}/sign   → SignChit (response chit, facility key)
	POST /ballots/{id}/signme → SignMeChit (me chit, question key)

Issuance requires the X-Voter-Token header. The facility never sees the
chit itself, only the blinded number it signs.

# Vote Intake

Vote submission carries no voter token at all. A vote message contains
the unblinded me chit and response chit with their signatures; those
prove eligibility without revealing identity. The intake outcome is
returned both in the JSON body and as the HTTP status:

	OK                → 200
	MALFORMED         → 400
	NOT_FOUND         → 404
	CLOSED            → 410
	RANK_REJECTED     → 403
	INVALID_SIGNATURE → 403
	CONTRADICTORY     → 409
	INTERNAL          → 500

# Verification

GET /ballots/{id}/verify returns every accepted vote with its chit
numbers. A voter finds their own chit number in the list to confirm
their vote was counted, and can recount the whole tally from the same
data.
*/
package handlers
