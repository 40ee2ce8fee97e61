package ctf

import (
	"sync"

	"github.com/jagbag/dvoting/models"
	"github.com/jagbag/dvoting/signer"
)

// PostedQuestion is a question resident in memory for as long as it is
// polling. It owns the question's me-chit signing key and the transient
// record of which blinded me chit each voter has had signed. None of this
// survives a restart, which is deliberate: the key is never persisted, so
// after a restart every chit for this question is unverifiable anyway.
type PostedQuestion struct {
	mu       sync.Mutex
	question models.Question
	signer   *signer.Signer
	meChits  map[string]string // voter username -> blinded me-chit text
}

func newPostedQuestion(q models.Question, s *signer.Signer) *PostedQuestion {
	return &PostedQuestion{
		question: q,
		signer:   s,
		meChits:  make(map[string]string),
	}
}

// Question returns a snapshot of the question record.
func (p *PostedQuestion) Question() models.Question {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.question
}

func (p *PostedQuestion) setClosed(q models.Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.question = q
}

// PublicKey returns the public half of the me-chit signing key as decimal
// strings, for inclusion in the votable-question listing.
func (p *PostedQuestion) PublicKey() (modulus, exponent string) {
	return p.signer.PublicKey()
}

// ConfirmSignature verifies a me chit against this question's key.
func (p *PostedQuestion) ConfirmSignature(chitText, signedText string) bool {
	return p.signer.ConfirmSignature(chitText, signedText)
}

// registerMeChit enforces the one-me-chit-per-voter rule. Recording the same
// blinded text again is fine (the client may have lost the response); a
// different text for a voter who already has one recorded is refused.
func (p *PostedQuestion) registerMeChit(username, blindedText string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.meChits[username]
	if ok && existing != blindedText {
		return ErrChitMismatch
	}
	p.meChits[username] = blindedText
	return nil
}
