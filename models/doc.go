// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateQuestionRequest / UpdateQuestionRequest: text, type, options
  - RegisterVoterRequest: username
  - SignChitRequest: blinded_chit
  - VoteMessage: plaintext and signed chits plus ranking

# Response Types

Types for JSON responses:

  - CreateQuestionResponse: question_id
  - RegisterVoterResponse: voter_token
  - SignChitResponse: signed_chit
  - SubmitVoteResponse / SubmitRankedVotesResponse: outcome
  - PublicKeyResponse: modulusStr, exponentStr
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Question: text, counting type, response options, lifecycle timestamps
  - ResponseOption: one choice on a question
  - Vote: one accepted (response, rank) pair with its chit numbers
  - Voter: username, token, eligibility flag

# Constants

Status values (derived from timestamps, never stored):

	StatusNew     = "new"
	StatusPolling = "polling"
	StatusClosed  = "closed"

Counting types:

	TypeSingle       = "SINGLE"
	TypeMultiple     = "MULTIPLE"
	TypeRankedChoice = "RANKED_CHOICE"

Vote submission outcomes:

	OK / MALFORMED / NOT_FOUND / CLOSED / RANK_REJECTED /
	INVALID_SIGNATURE / CONTRADICTORY / INTERNAL
*/
package models
