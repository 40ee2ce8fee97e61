package models

import "time"

// Question status values. Status is always derived from the posted/closed
// timestamps, never stored.
const (
	StatusNew     = "new"
	StatusPolling = "polling"
	StatusClosed  = "closed"
)

// Counting type constants
const (
	TypeSingle       = "SINGLE"
	TypeMultiple     = "MULTIPLE"
	TypeRankedChoice = "RANKED_CHOICE"
)

// Outcome is the result of a vote submission.
type Outcome string

const (
	OutcomeOK               Outcome = "OK"
	OutcomeMalformed        Outcome = "MALFORMED"
	OutcomeNotFound         Outcome = "NOT_FOUND"
	OutcomeClosed           Outcome = "CLOSED"
	OutcomeRankRejected     Outcome = "RANK_REJECTED"
	OutcomeInvalidSignature Outcome = "INVALID_SIGNATURE"
	OutcomeContradictory    Outcome = "CONTRADICTORY"
	OutcomeInternal         Outcome = "INTERNAL"
)

// Request types

type CreateQuestionRequest struct {
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

type UpdateQuestionRequest struct {
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

type RegisterVoterRequest struct {
	Username string `json:"username"`
}

type SignChitRequest struct {
	BlindedChit string `json:"blinded_chit"`
}

// VoteMessage carries everything required to cast one vote: the plaintext
// chits, their signed versions, and (for ranked choice) the 0-based ranking.
// Field names match what the voting client puts on the wire.
type VoteMessage struct {
	MeChit             string `json:"meChit"`
	MeChitSigned       string `json:"meChitSigned"`
	ResponseChit       string `json:"responseChit"`
	ResponseChitSigned string `json:"responseChitSigned"`
	Ranking            int    `json:"ranking"`
}

// Response types

type CreateQuestionResponse struct {
	QuestionID string `json:"question_id"`
}

type RegisterVoterResponse struct {
	Username   string `json:"username"`
	VoterToken string `json:"voter_token"`
}

type SignChitResponse struct {
	SignedChit string `json:"signed_chit"`
}

type SubmitVoteResponse struct {
	Outcome Outcome `json:"outcome"`
}

type SubmitRankedVotesResponse struct {
	Outcome Outcome `json:"outcome"`
	// Index of the first message that did not come back OK; -1 when all did.
	FailedIndex int `json:"failed_index"`
}

// PublicKeyResponse carries a signing key's public half as decimal strings,
// the form the voting client's bigint library consumes.
type PublicKeyResponse struct {
	ModulusStr  string `json:"modulusStr"`
	ExponentStr string `json:"exponentStr"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Domain types

type Question struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Type      string           `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	PostedAt  *time.Time       `json:"posted_at,omitempty"`
	ClosedAt  *time.Time       `json:"closed_at,omitempty"`
	Options   []ResponseOption `json:"options"`
}

type ResponseOption struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
	Position   int    `json:"position"`
}

// Status derives the lifecycle state from the timestamp pair.
func (q Question) Status() string {
	switch {
	case q.ClosedAt != nil:
		return StatusClosed
	case q.PostedAt != nil:
		return StatusPolling
	default:
		return StatusNew
	}
}

func (q Question) CanEdit() bool   { return q.PostedAt == nil }
func (q Question) CanDelete() bool { return q.PostedAt == nil }
func (q Question) CanPost() bool   { return q.PostedAt == nil }
func (q Question) CanClose() bool  { return q.PostedAt != nil && q.ClosedAt == nil }

// AllowedChits bounds how many distinct blinded response chits one voter may
// have signed for this question: one per response option. The me chit is
// governed separately and gets no slot here.
func (q Question) AllowedChits() int { return len(q.Options) }

// AcceptsRank reports whether a 0-based ranking is legal for this question's
// counting type. SINGLE questions accept only rank 0.
func (q Question) AcceptsRank(rank int) bool {
	if rank < 0 {
		return false
	}
	max := 1
	if q.Type == TypeMultiple || q.Type == TypeRankedChoice {
		max = len(q.Options)
	}
	return rank < max
}

// QuestionInfo is a Question plus its derived status and the lifecycle
// actions currently legal on it, for admin and voter listings.
type QuestionInfo struct {
	Question
	Status    string `json:"status"`
	Editable  bool   `json:"editable"`
	Deletable bool   `json:"deletable"`
	Postable  bool   `json:"postable"`
	Closable  bool   `json:"closable"`
}

func NewQuestionInfo(q Question) QuestionInfo {
	return QuestionInfo{
		Question:  q,
		Status:    q.Status(),
		Editable:  q.CanEdit(),
		Deletable: q.CanDelete(),
		Postable:  q.CanPost(),
		Closable:  q.CanClose(),
	}
}

// BallotQuestion is a polling question as presented to voters: the question
// plus the public half of its me-chit signing key.
type BallotQuestion struct {
	QuestionInfo
	ModulusStr  string `json:"modulusStr"`
	ExponentStr string `json:"exponentStr"`
}

// Vote is one accepted (response, rank) pair on a question. Immutable once
// written. The chit numbers are the voter-chosen secrets, kept so a voter
// can verify their ballot was counted without identifying themselves.
type Vote struct {
	ID                 string    `json:"id"`
	QuestionID         string    `json:"question_id"`
	Response           string    `json:"response"`
	VoterChitNumber    string    `json:"voter_chit_number"`
	ResponseChitNumber string    `json:"response_chit_number"`
	Ranking            int       `json:"ranking"`
	ReceivedAt         time.Time `json:"received_at"`
}

type Voter struct {
	Username      string    `json:"username"`
	Token         string    `json:"-"` // Never expose in JSON
	AllowedToVote bool      `json:"allowed_to_vote"`
	CreatedAt     time.Time `json:"created_at"`
}
