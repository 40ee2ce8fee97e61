package ctf

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jagbag/dvoting/chit"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/models"
	"github.com/jagbag/dvoting/signer"
)

var (
	// ErrIneligibleVoter rejects issuance for an absent voter or one not
	// allowed to vote.
	ErrIneligibleVoter = errors.New("voter is not allowed to vote")
	// ErrNotPolling rejects chit issuance for a question that exists but is
	// not currently polling.
	ErrNotPolling = errors.New("question is not accepting chits")
	// ErrQuotaExceeded flags a voter asking for more distinct response chits
	// than the question has options.
	ErrQuotaExceeded = errors.New("response chit quota exhausted")
	// ErrChitMismatch flags a second, different blinded me chit from the
	// same voter on the same question.
	ErrChitMismatch = errors.New("a different me chit was already registered")
	// ErrInvalidTransition rejects post/close from the wrong state.
	ErrInvalidTransition = errors.New("illegal question state transition")
	// ErrMalformedChit rejects an undecodable blinded chit.
	ErrMalformedChit = errors.New("undecodable blinded chit")
)

// Facility is the central tabulating facility: the top-level signing entity
// for response chits, owner of the resident set of polling questions, and
// keeper of the per-voter issuance ledger. The resident set and the ledger
// live only in memory; if the process restarts they die with the signing
// keys they protect, and every question left polling is closed at startup.
type Facility struct {
	signer  *signer.Signer
	store   *db.Store
	trouble *slog.Logger

	mu     sync.Mutex
	posted map[string]*PostedQuestion
	// voter username -> question id -> blinded response-chit texts already
	// signed. Bounds issuance; never persisted.
	issued map[string]map[string]map[string]bool
}

// New creates a facility with a fresh response-chit signing key.
func New(store *db.Store) (*Facility, error) {
	s, err := signer.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize facility key: %w", err)
	}
	return &Facility{
		signer:  s,
		store:   store,
		trouble: slog.Default().With("log", "trouble"),
		posted:  make(map[string]*PostedQuestion),
		issued:  make(map[string]map[string]map[string]bool),
	}, nil
}

// PublicKey returns the public half of the response-chit signing key as
// decimal strings.
func (f *Facility) PublicKey() (modulus, exponent string) {
	return f.signer.PublicKey()
}

// lookupPosted returns the resident question, or nil if it is not polling.
func (f *Facility) lookupPosted(id string) *PostedQuestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posted[id]
}

// requirePolling resolves a question id to its resident polling entry,
// distinguishing a question that does not exist from one that exists but
// is not accepting chits.
func (f *Facility) requirePolling(id string) (*PostedQuestion, error) {
	if p := f.lookupPosted(id); p != nil {
		return p, nil
	}
	if _, err := f.store.GetQuestion(id); err != nil {
		return nil, err
	}
	return nil, ErrNotPolling
}

// LookupQuestion finds a question, consulting the resident polling set
// before the database. The resident copy matters: it carries transient state
// (the me-chit key and bookkeeping) that the database never sees.
func (f *Facility) LookupQuestion(id string) (models.Question, error) {
	if p := f.lookupPosted(id); p != nil {
		return p.Question(), nil
	}
	return f.store.GetQuestion(id)
}

// PostQuestion moves a question from NEW to POLLING: it generates the
// question's own me-chit key pair, records the posted timestamp, and makes
// the question resident so the key survives as long as polling does.
// Status is re-checked here rather than trusted from the caller, so a
// concurrent admin action cannot double-post.
func (f *Facility) PostQuestion(id string) (models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.posted[id]; ok {
		return models.Question{}, ErrInvalidTransition
	}
	q, err := f.store.GetQuestion(id)
	if err != nil {
		return models.Question{}, err
	}
	if q.Status() != models.StatusNew {
		return models.Question{}, ErrInvalidTransition
	}

	s, err := signer.New()
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to generate question key: %w", err)
	}

	now := time.Now()
	if err := f.store.MarkPosted(id, now); err != nil {
		return models.Question{}, err
	}
	q.PostedAt = &now
	f.posted[id] = newPostedQuestion(q, s)

	slog.Info("question posted", "question_id", id)
	return q, nil
}

// CloseQuestion moves a question from POLLING to CLOSED and drops it from
// the resident set. Its key pair needs no explicit revocation: once the
// status leaves polling, every chit for the question is rejected anyway.
func (f *Facility) CloseQuestion(id string) (models.Question, error) {
	f.mu.Lock()
	p, resident := f.posted[id]
	if resident {
		delete(f.posted, id)
	}
	f.mu.Unlock()

	if !resident {
		// Not resident: either unknown, never posted, or already closed.
		q, err := f.store.GetQuestion(id)
		if err != nil {
			return models.Question{}, err
		}
		if q.Status() != models.StatusPolling {
			return models.Question{}, ErrInvalidTransition
		}
		// Polling in the database but not resident: left over from a prior
		// process. Close it; its key is gone.
	}

	now := time.Now()
	if err := f.store.MarkClosed(id, now); err != nil {
		return models.Question{}, err
	}

	q, err := f.store.GetQuestion(id)
	if err != nil {
		return models.Question{}, err
	}
	if resident {
		p.setClosed(q)
	}

	slog.Info("question closed", "question_id", id)
	return q, nil
}

// VotableQuestions lists the currently polling questions, each with the
// public half of its me-chit key.
func (f *Facility) VotableQuestions() []models.BallotQuestion {
	f.mu.Lock()
	resident := make([]*PostedQuestion, 0, len(f.posted))
	for _, p := range f.posted {
		resident = append(resident, p)
	}
	f.mu.Unlock()

	list := make([]models.BallotQuestion, 0, len(resident))
	for _, p := range resident {
		q := p.Question()
		mod, exp := p.PublicKey()
		list = append(list, models.BallotQuestion{
			QuestionInfo: models.NewQuestionInfo(q),
			ModulusStr:   mod,
			ExponentStr:  exp,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

// SignResponseChit signs a blinded response chit with the facility's key.
// A voter may have at most one distinct blinded chit signed per response
// option on the question; re-submitting an already-signed blinded text
// deterministically re-issues the same signature without consuming quota,
// so a lost response is safe to retry.
func (f *Facility) SignResponseChit(blindedText string, voter *models.Voter, questionID string) (string, error) {
	if voter == nil || !voter.AllowedToVote {
		f.trouble.Warn("chit signing requested by ineligible voter", "question_id", questionID)
		return "", ErrIneligibleVoter
	}
	p, err := f.requirePolling(questionID)
	if err != nil {
		return "", err
	}
	// Validate before touching the ledger so garbage never consumes quota.
	if _, err := chit.Decode(blindedText); err != nil {
		return "", ErrMalformedChit
	}
	q := p.Question()

	// Ledger decision under the lock; the exponentiation happens outside it.
	f.mu.Lock()
	perQuestion, ok := f.issued[voter.Username]
	if !ok {
		perQuestion = make(map[string]map[string]bool)
		f.issued[voter.Username] = perQuestion
	}
	seen, ok := perQuestion[questionID]
	if !ok {
		seen = make(map[string]bool)
		perQuestion[questionID] = seen
	}
	if !seen[blindedText] {
		if len(seen) >= q.AllowedChits() {
			f.mu.Unlock()
			f.trouble.Warn("voter requesting excessive response chits",
				"voter", voter.Username, "question_id", questionID)
			return "", ErrQuotaExceeded
		}
		seen[blindedText] = true
	}
	f.mu.Unlock()

	signed, err := f.signer.SignText(blindedText)
	if err != nil {
		return "", ErrMalformedChit
	}
	return signed, nil
}

// SignMeChit signs a blinded me chit with the question's own key. At most
// one blinded me-chit text is ever recorded per voter per question; the
// same text is re-signed idempotently, a different one is refused as an
// attempted extra ballot.
func (f *Facility) SignMeChit(blindedText string, voter *models.Voter, questionID string) (string, error) {
	if voter == nil || !voter.AllowedToVote {
		f.trouble.Warn("me chit signing requested by ineligible voter", "question_id", questionID)
		return "", ErrIneligibleVoter
	}
	p, err := f.requirePolling(questionID)
	if err != nil {
		return "", err
	}
	// Validate before registering so garbage never locks in the one me chit.
	if _, err := chit.Decode(blindedText); err != nil {
		return "", ErrMalformedChit
	}

	if err := p.registerMeChit(voter.Username, blindedText); err != nil {
		f.trouble.Warn("voter submitting extra me chit",
			"voter", voter.Username, "question_id", questionID)
		return "", err
	}

	signed, err := p.signer.SignText(blindedText)
	if err != nil {
		return "", ErrMalformedChit
	}
	return signed, nil
}

// ReceiveVote runs the vote validation pipeline and, on success, records the
// vote. Every rejection maps to a distinct outcome; the trouble log gets the
// pseudonymous chit data only, never a voter identity, because at this point
// the server genuinely does not know who is voting. That is the protocol
// working as intended.
func (f *Facility) ReceiveVote(questionID string, vote models.VoteMessage) models.Outcome {
	if vote.MeChit == "" || vote.MeChitSigned == "" || vote.ResponseChit == "" || vote.ResponseChitSigned == "" {
		f.trouble.Warn("vote with missing fields", "question_id", questionID)
		return models.OutcomeMalformed
	}

	p := f.lookupPosted(questionID)
	if p == nil {
		q, err := f.store.GetQuestion(questionID)
		if err == db.ErrNotFound {
			f.trouble.Warn("vote on unknown question", "question_id", questionID)
			return models.OutcomeNotFound
		}
		if err != nil {
			slog.Error("question lookup failed", "question_id", questionID, "error", err)
			return models.OutcomeInternal
		}
		// Exists but is not resident, so it is not polling (or its key died
		// with a previous process, which amounts to the same thing).
		f.trouble.Warn("vote on question not open", "question_id", questionID, "status", q.Status())
		return models.OutcomeClosed
	}
	q := p.Question()
	if q.Status() != models.StatusPolling {
		f.trouble.Warn("vote on question not open", "question_id", questionID, "status", q.Status())
		return models.OutcomeClosed
	}

	if !q.AcceptsRank(vote.Ranking) {
		f.trouble.Warn("vote with out-of-range ranking", "question_id", questionID, "ranking", vote.Ranking)
		return models.OutcomeRankRejected
	}

	if !p.ConfirmSignature(vote.MeChit, vote.MeChitSigned) {
		f.trouble.Warn("invalid me chit signature", "question_id", questionID)
		return models.OutcomeInvalidSignature
	}
	if !f.signer.ConfirmSignature(vote.ResponseChit, vote.ResponseChitSigned) {
		f.trouble.Warn("invalid response chit signature", "question_id", questionID)
		return models.OutcomeInvalidSignature
	}

	meChit, err := chit.Parse(vote.MeChit)
	if err != nil {
		f.trouble.Warn("malformed me chit", "question_id", questionID)
		return models.OutcomeMalformed
	}
	responseChit, err := chit.Parse(vote.ResponseChit)
	if err != nil {
		f.trouble.Warn("malformed response chit", "question_id", questionID)
		return models.OutcomeMalformed
	}
	if meChit.QuestionID != questionID || responseChit.QuestionID != questionID {
		f.trouble.Warn("chits do not belong to this question",
			"question_id", questionID,
			"me_chit_question", meChit.QuestionID,
			"response_chit_question", responseChit.QuestionID)
		return models.OutcomeMalformed
	}

	return f.castVote(questionID, meChit, responseChit, vote.Ranking)
}

// castVote records a vetted vote, or recognizes it as a duplicate or a
// contradiction. The store's uniqueness constraint closes the race where
// two identical submissions both miss the existence check.
func (f *Facility) castVote(questionID string, meChit, responseChit chit.Chit, ranking int) models.Outcome {
	existing, err := f.store.FindVote(questionID, meChit.Secret, ranking)
	switch err {
	case nil:
		return f.compareVote(existing, responseChit, ranking)
	case db.ErrNotFound:
		// fall through to insert
	default:
		slog.Error("vote lookup failed", "question_id", questionID, "error", err)
		return models.OutcomeInternal
	}

	v := models.Vote{
		ID:                 uuid.NewString(),
		QuestionID:         questionID,
		Response:           responseChit.Payload,
		VoterChitNumber:    meChit.Secret,
		ResponseChitNumber: responseChit.Secret,
		Ranking:            ranking,
		ReceivedAt:         time.Now(),
	}
	err = f.store.InsertVote(v)
	if err == db.ErrDuplicate {
		// Lost the race to a concurrent submission with the same key.
		existing, err := f.store.FindVote(questionID, meChit.Secret, ranking)
		if err != nil {
			slog.Error("vote re-lookup failed", "question_id", questionID, "error", err)
			return models.OutcomeInternal
		}
		return f.compareVote(existing, responseChit, ranking)
	}
	if err != nil {
		slog.Error("vote insert failed", "question_id", questionID, "error", err)
		return models.OutcomeInternal
	}

	slog.Info("vote accepted", "question_id", questionID, "ranking", ranking)
	return models.OutcomeOK
}

func (f *Facility) compareVote(existing models.Vote, responseChit chit.Chit, ranking int) models.Outcome {
	if existing.Response == responseChit.Payload && existing.ResponseChitNumber == responseChit.Secret {
		// Same message received twice - that's fine.
		return models.OutcomeOK
	}
	f.trouble.Warn("contradictory votes at same rank",
		"question_id", existing.QuestionID,
		"voter_chit_number", existing.VoterChitNumber,
		"ranking", ranking,
		"recorded_response", existing.Response,
		"new_response", responseChit.Payload)
	return models.OutcomeContradictory
}

// Tally returns every accepted vote on a question, in no guaranteed order.
// Clients group by rank and response; any ranked-choice elimination runs
// client-side.
func (f *Facility) Tally(questionID string) ([]models.Vote, error) {
	if _, err := f.LookupQuestion(questionID); err != nil {
		return nil, err
	}
	return f.store.ListVotes(questionID)
}
