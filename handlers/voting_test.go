// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/jagbag/dvoting/chit"
	"github.com/jagbag/dvoting/models"
	"github.com/jagbag/dvoting/testutil"
)

// plainBlinded encodes a plaintext chit as if blinded with factor 1, so the
// signature the facility returns verifies directly against the plaintext.
func plainBlinded(plaintext string) string {
	return chit.Encode(new(big.Int).SetBytes([]byte(plaintext)))
}

// postedQuestion creates a question and posts it through the facility.
func postedQuestion(t *testing.T, env testEnv, qtype string, options ...string) models.Question {
	t.Helper()

	q := testutil.CreateTestQuestion(t, env.store, qtype, options...)
	if _, err := env.facility.PostQuestion(q.ID); err != nil {
		t.Fatalf("Failed to post question: %v", err)
	}
	return q
}

func TestGetKeys(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)

	req := testutil.MakeRequest("GET", "/ballots/keys", nil, nil)
	w := httptest.NewRecorder()
	h.GetKeys(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp models.PublicKeyResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ModulusStr == "" || resp.ExponentStr == "" {
		t.Error("Expected modulusStr and exponentStr in the response")
	}
}

func TestListBallots(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)
	token := testutil.CreateTestVoter(t, env.store, "alice", true)
	q := postedQuestion(t, env, models.TypeSingle, "Yes", "No")
	testutil.CreateTestQuestion(t, env.store, models.TypeSingle, "A", "B") // never posted

	// No token
	req := testutil.MakeRequest("GET", "/ballots", nil, nil)
	w := httptest.NewRecorder()
	h.ListBallots(w, req)
	testutil.AssertStatus(t, w, 401)

	// Valid token sees only the polling question, with its key
	req = testutil.MakeRequest("GET", "/ballots", nil, map[string]string{"X-Voter-Token": token})
	w = httptest.NewRecorder()
	h.ListBallots(w, req)
	testutil.AssertStatus(t, w, 200)

	var ballots []models.BallotQuestion
	testutil.AssertJSON(t, w, &ballots)
	if len(ballots) != 1 {
		t.Fatalf("Expected 1 votable question, got %d", len(ballots))
	}
	if ballots[0].ID != q.ID {
		t.Errorf("Expected question %s, got %s", q.ID, ballots[0].ID)
	}
	if ballots[0].ModulusStr == "" || ballots[0].ExponentStr == "" {
		t.Error("Expected the question's public key in the listing")
	}
}

func TestSignChitEndpoint(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)
	allowed := testutil.CreateTestVoter(t, env.store, "alice", true)
	pending := testutil.CreateTestVoter(t, env.store, "bob", false)
	q := postedQuestion(t, env, models.TypeSingle, "Yes", "No")

	sign := func(questionID, token, blinded string) *httptest.ResponseRecorder {
		headers := map[string]string{}
		if token != "" {
			headers["X-Voter-Token"] = token
		}
		body := models.SignChitRequest{BlindedChit: blinded}
		req := testutil.MakeRequest("POST", "/ballots/"+questionID+"/sign", body, headers)
		req.SetPathValue("id", questionID)
		w := httptest.NewRecorder()
		h.SignChit(w, req)
		return w
	}

	blinded := plainBlinded(fmt.Sprintf("%s 12345 Yes", q.ID))

	// Approved voter gets a signature
	w := sign(q.ID, allowed, blinded)
	testutil.AssertStatus(t, w, 200)
	var resp models.SignChitResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.SignedChit == "" {
		t.Error("Expected a signed_chit in the response")
	}

	// No token, unknown token, unapproved voter: all forbidden
	testutil.AssertStatus(t, sign(q.ID, "", blinded), 403)
	testutil.AssertStatus(t, sign(q.ID, "bogus-token", blinded), 403)
	testutil.AssertStatus(t, sign(q.ID, pending, blinded), 403)

	// Bad inputs
	testutil.AssertStatus(t, sign(q.ID, allowed, ""), 400)
	testutil.AssertStatus(t, sign(q.ID, allowed, "!!! not a number"), 400)
	testutil.AssertStatus(t, sign("nope", allowed, blinded), 404)

	// Two options means a quota of two; the first request already used one
	testutil.AssertStatus(t, sign(q.ID, allowed, plainBlinded(fmt.Sprintf("%s 12346 No", q.ID))), 200)
	testutil.AssertStatus(t, sign(q.ID, allowed, plainBlinded(fmt.Sprintf("%s 12347 No", q.ID))), 403)

	// Closed question
	if _, err := env.facility.CloseQuestion(q.ID); err != nil {
		t.Fatalf("Failed to close question: %v", err)
	}
	testutil.AssertStatus(t, sign(q.ID, allowed, blinded), 410)
}

func TestSignMeChitEndpoint(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)
	token := testutil.CreateTestVoter(t, env.store, "alice", true)
	q := postedQuestion(t, env, models.TypeSingle, "Yes", "No")

	signme := func(blinded string) *httptest.ResponseRecorder {
		body := models.SignChitRequest{BlindedChit: blinded}
		req := testutil.MakeRequest("POST", "/ballots/"+q.ID+"/signme", body, map[string]string{"X-Voter-Token": token})
		req.SetPathValue("id", q.ID)
		w := httptest.NewRecorder()
		h.SignMeChit(w, req)
		return w
	}

	blinded := plainBlinded(fmt.Sprintf("%s 777", q.ID))

	w := signme(blinded)
	testutil.AssertStatus(t, w, 200)
	var first models.SignChitResponse
	testutil.AssertJSON(t, w, &first)

	// Asking again for the same me chit is idempotent
	w = signme(blinded)
	testutil.AssertStatus(t, w, 200)
	var second models.SignChitResponse
	testutil.AssertJSON(t, w, &second)
	if first.SignedChit != second.SignedChit {
		t.Error("Re-signing the same me chit should return the same signature")
	}

	// A different me chit for the same question is refused
	testutil.AssertStatus(t, signme(plainBlinded(fmt.Sprintf("%s 778", q.ID))), 403)
}

// issueChits obtains a signed me chit and response chit through the facility
// with blinding factor 1, ready to drop into a vote message.
func issueChits(t *testing.T, env testEnv, questionID, voterSecret, responseSecret, response string) models.VoteMessage {
	t.Helper()

	voter := &models.Voter{Username: "alice", AllowedToVote: true}
	meChit := fmt.Sprintf("%s %s", questionID, voterSecret)
	responseChit := fmt.Sprintf("%s %s %s", questionID, responseSecret, response)

	meSigned, err := env.facility.SignMeChit(plainBlinded(meChit), voter, questionID)
	if err != nil {
		t.Fatalf("SignMeChit failed: %v", err)
	}
	respSigned, err := env.facility.SignResponseChit(plainBlinded(responseChit), voter, questionID)
	if err != nil {
		t.Fatalf("SignResponseChit failed: %v", err)
	}
	return models.VoteMessage{
		MeChit:             meChit,
		MeChitSigned:       meSigned,
		ResponseChit:       responseChit,
		ResponseChitSigned: respSigned,
	}
}

func TestSubmitVote(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)
	q := postedQuestion(t, env, models.TypeSingle, "Yes", "No")
	msg := issueChits(t, env, q.ID, "31337", "99001", "Yes")

	submit := func(m models.VoteMessage) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/ballots/"+q.ID+"/vote", m, nil)
		req.SetPathValue("id", q.ID)
		w := httptest.NewRecorder()
		h.SubmitVote(w, req)
		return w
	}

	// Accepted
	w := submit(msg)
	testutil.AssertStatus(t, w, 200)
	var resp models.SubmitVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeOK {
		t.Errorf("Expected outcome OK, got %s", resp.Outcome)
	}

	// Same vote again is fine
	testutil.AssertStatus(t, submit(msg), 200)

	// Tampered signature
	bad := msg
	bad.ResponseChitSigned = chit.Encode(big.NewInt(12345))
	w = submit(bad)
	testutil.AssertStatus(t, w, 403)
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeInvalidSignature {
		t.Errorf("Expected INVALID_SIGNATURE, got %s", resp.Outcome)
	}

	// Missing fields
	testutil.AssertStatus(t, submit(models.VoteMessage{}), 400)

	// Out-of-range rank on a single-choice question
	ranked := msg
	ranked.Ranking = 1
	w = submit(ranked)
	testutil.AssertStatus(t, w, 403)
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeRankRejected {
		t.Errorf("Expected RANK_REJECTED, got %s", resp.Outcome)
	}
}

func TestSubmitRankedVotes(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)
	q := postedQuestion(t, env, models.TypeRankedChoice, "A", "B", "C")

	voter := &models.Voter{Username: "alice", AllowedToVote: true}
	meChit := fmt.Sprintf("%s 424242", q.ID)
	meSigned, err := env.facility.SignMeChit(plainBlinded(meChit), voter, q.ID)
	if err != nil {
		t.Fatalf("SignMeChit failed: %v", err)
	}

	var msgs []models.VoteMessage
	for i, response := range []string{"B", "A", "C"} {
		responseChit := fmt.Sprintf("%s 5550%d %s", q.ID, i, response)
		respSigned, err := env.facility.SignResponseChit(plainBlinded(responseChit), voter, q.ID)
		if err != nil {
			t.Fatalf("SignResponseChit failed: %v", err)
		}
		msgs = append(msgs, models.VoteMessage{
			MeChit:             meChit,
			MeChitSigned:       meSigned,
			ResponseChit:       responseChit,
			ResponseChitSigned: respSigned,
			Ranking:            i,
		})
	}

	req := testutil.MakeRequest("POST", "/ballots/"+q.ID+"/vote-rank", msgs, nil)
	req.SetPathValue("id", q.ID)
	w := httptest.NewRecorder()
	h.SubmitRankedVotes(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp models.SubmitRankedVotesResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeOK || resp.FailedIndex != -1 {
		t.Errorf("Expected OK/-1, got %s/%d", resp.Outcome, resp.FailedIndex)
	}

	// A batch with a bad message reports where it stopped
	bad := msgs
	bad[1].ResponseChitSigned = chit.Encode(big.NewInt(1))
	req = testutil.MakeRequest("POST", "/ballots/"+q.ID+"/vote-rank", bad, nil)
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.SubmitRankedVotes(w, req)
	testutil.AssertStatus(t, w, 403)
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeInvalidSignature || resp.FailedIndex != 1 {
		t.Errorf("Expected INVALID_SIGNATURE/1, got %s/%d", resp.Outcome, resp.FailedIndex)
	}

	// Empty batch
	req = testutil.MakeRequest("POST", "/ballots/"+q.ID+"/vote-rank", []models.VoteMessage{}, nil)
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.SubmitRankedVotes(w, req)
	testutil.AssertStatus(t, w, 400)
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.facility, env.store, env.cfg)
	q := postedQuestion(t, env, models.TypeSingle, "Yes", "No")
	msg := issueChits(t, env, q.ID, "867", "5309", "Yes")

	req := testutil.MakeRequest("POST", "/ballots/"+q.ID+"/vote", msg, nil)
	req.SetPathValue("id", q.ID)
	w := httptest.NewRecorder()
	h.SubmitVote(w, req)
	testutil.AssertStatus(t, w, 200)

	req = testutil.MakeRequest("GET", "/ballots/"+q.ID+"/verify", nil, nil)
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.Verify(w, req)
	testutil.AssertStatus(t, w, 200)

	var votes []models.Vote
	testutil.AssertJSON(t, w, &votes)
	if len(votes) != 1 {
		t.Fatalf("Expected 1 vote, got %d", len(votes))
	}
	if votes[0].Response != "Yes" || votes[0].VoterChitNumber != "867" {
		t.Errorf("Unexpected vote row: %+v", votes[0])
	}

	// Unknown question
	req = testutil.MakeRequest("GET", "/ballots/nope/verify", nil, nil)
	req.SetPathValue("id", "nope")
	w = httptest.NewRecorder()
	h.Verify(w, req)
	testutil.AssertStatus(t, w, 404)
}
