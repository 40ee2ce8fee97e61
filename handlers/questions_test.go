// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/jagbag/dvoting/cliparse"
	"github.com/jagbag/dvoting/ctf"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/models"
	"github.com/jagbag/dvoting/testutil"
)

type testEnv struct {
	store    *db.Store
	facility *ctf.Facility
	cfg      cliparse.Config
	adminKey string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	store := db.NewStore(conn)
	facility, err := ctf.New(store)
	if err != nil {
		t.Fatalf("Failed to create facility: %v", err)
	}
	return testEnv{
		store:    store,
		facility: facility,
		cfg:      testutil.GetTestConfig(),
		adminKey: testutil.AdminKey(),
	}
}

func (e testEnv) adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": e.adminKey}
}

func TestCreateQuestion(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuestionHandler(env.facility, env.store, env.cfg)

	tests := []struct {
		name       string
		body       interface{}
		adminKey   string
		wantStatus int
	}{
		{
			name: "valid question",
			body: models.CreateQuestionRequest{
				Text:    "Best lunch spot?",
				Type:    models.TypeSingle,
				Options: []string{"Tacos", "Ramen"},
			},
			adminKey:   env.adminKey,
			wantStatus: 201,
		},
		{
			name: "missing admin key",
			body: models.CreateQuestionRequest{
				Text:    "Best lunch spot?",
				Options: []string{"Tacos", "Ramen"},
			},
			adminKey:   "",
			wantStatus: 401,
		},
		{
			name: "wrong admin key",
			body: models.CreateQuestionRequest{
				Text:    "Best lunch spot?",
				Options: []string{"Tacos", "Ramen"},
			},
			adminKey:   "not-the-key",
			wantStatus: 401,
		},
		{
			name: "empty text",
			body: models.CreateQuestionRequest{
				Options: []string{"Tacos", "Ramen"},
			},
			adminKey:   env.adminKey,
			wantStatus: 400,
		},
		{
			name: "unknown counting type",
			body: models.CreateQuestionRequest{
				Text:    "Best lunch spot?",
				Type:    "APPROVAL",
				Options: []string{"Tacos", "Ramen"},
			},
			adminKey:   env.adminKey,
			wantStatus: 400,
		},
		{
			name: "too few options",
			body: models.CreateQuestionRequest{
				Text:    "Best lunch spot?",
				Options: []string{"Tacos"},
			},
			adminKey:   env.adminKey,
			wantStatus: 400,
		},
		{
			name: "duplicate options",
			body: models.CreateQuestionRequest{
				Text:    "Best lunch spot?",
				Options: []string{"Tacos", "Tacos"},
			},
			adminKey:   env.adminKey,
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.adminKey != "" {
				headers["X-Admin-Key"] = tt.adminKey
			}
			req := testutil.MakeRequest("POST", "/questions", tt.body, headers)
			w := httptest.NewRecorder()

			h.CreateQuestion(w, req)
			testutil.AssertStatus(t, w, tt.wantStatus)

			if tt.wantStatus == 201 {
				var resp models.CreateQuestionResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.QuestionID == "" {
					t.Error("Expected a question_id in the response")
				}
			}
		})
	}
}

func TestQuestionCRUD(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuestionHandler(env.facility, env.store, env.cfg)
	q := testutil.CreateTestQuestion(t, env.store, models.TypeSingle, "Yes", "No")

	// Get
	req := testutil.MakeRequest("GET", "/questions/"+q.ID, nil, env.adminHeaders())
	req.SetPathValue("id", q.ID)
	w := httptest.NewRecorder()
	h.GetQuestion(w, req)
	testutil.AssertStatus(t, w, 200)

	var info models.QuestionInfo
	testutil.AssertJSON(t, w, &info)
	if info.Status != models.StatusNew {
		t.Errorf("Expected status new, got %s", info.Status)
	}
	if !info.Editable || !info.Deletable || !info.Postable {
		t.Error("A new question should be editable, deletable, and postable")
	}
	if info.Closable {
		t.Error("A new question should not be closable")
	}

	// Update
	update := models.UpdateQuestionRequest{
		Text:    "Updated question?",
		Type:    models.TypeMultiple,
		Options: []string{"A", "B", "C"},
	}
	req = testutil.MakeRequest("PUT", "/questions/"+q.ID, update, env.adminHeaders())
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.UpdateQuestion(w, req)
	testutil.AssertStatus(t, w, 200)

	updated, err := env.store.GetQuestion(q.ID)
	if err != nil {
		t.Fatalf("Failed to re-read question: %v", err)
	}
	if updated.Text != "Updated question?" || updated.Type != models.TypeMultiple {
		t.Errorf("Update not persisted: %+v", updated)
	}
	if len(updated.Options) != 3 {
		t.Errorf("Expected 3 options after update, got %d", len(updated.Options))
	}

	// Delete
	req = testutil.MakeRequest("DELETE", "/questions/"+q.ID, nil, env.adminHeaders())
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.DeleteQuestion(w, req)
	testutil.AssertStatus(t, w, 204)

	// Gone
	req = testutil.MakeRequest("GET", "/questions/"+q.ID, nil, env.adminHeaders())
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.GetQuestion(w, req)
	testutil.AssertStatus(t, w, 404)
}

func TestListQuestions(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuestionHandler(env.facility, env.store, env.cfg)
	testutil.CreateTestQuestion(t, env.store, models.TypeSingle, "Yes", "No")
	testutil.CreateTestQuestion(t, env.store, models.TypeRankedChoice, "A", "B", "C")

	req := testutil.MakeRequest("GET", "/questions", nil, env.adminHeaders())
	w := httptest.NewRecorder()
	h.ListQuestions(w, req)
	testutil.AssertStatus(t, w, 200)

	var infos []models.QuestionInfo
	testutil.AssertJSON(t, w, &infos)
	if len(infos) != 2 {
		t.Errorf("Expected 2 questions, got %d", len(infos))
	}
}

func TestPostAndCloseQuestion(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuestionHandler(env.facility, env.store, env.cfg)
	q := testutil.CreateTestQuestion(t, env.store, models.TypeSingle, "Yes", "No")

	postReq := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/questions/"+q.ID+"/post", nil, env.adminHeaders())
		req.SetPathValue("id", q.ID)
		w := httptest.NewRecorder()
		h.PostQuestion(w, req)
		return w
	}
	closeReq := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/questions/"+q.ID+"/close", nil, env.adminHeaders())
		req.SetPathValue("id", q.ID)
		w := httptest.NewRecorder()
		h.CloseQuestion(w, req)
		return w
	}

	// Post
	w := postReq()
	testutil.AssertStatus(t, w, 200)
	var info models.QuestionInfo
	testutil.AssertJSON(t, w, &info)
	if info.Status != models.StatusPolling {
		t.Errorf("Expected status polling, got %s", info.Status)
	}

	// Posting again conflicts
	testutil.AssertStatus(t, postReq(), 409)

	// Editing a polling question conflicts
	update := models.UpdateQuestionRequest{Text: "Changed", Options: []string{"A", "B"}}
	req := testutil.MakeRequest("PUT", "/questions/"+q.ID, update, env.adminHeaders())
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.UpdateQuestion(w, req)
	testutil.AssertStatus(t, w, 409)

	// So does deleting it
	req = testutil.MakeRequest("DELETE", "/questions/"+q.ID, nil, env.adminHeaders())
	req.SetPathValue("id", q.ID)
	w = httptest.NewRecorder()
	h.DeleteQuestion(w, req)
	testutil.AssertStatus(t, w, 409)

	// Close
	w = closeReq()
	testutil.AssertStatus(t, w, 200)
	testutil.AssertJSON(t, w, &info)
	if info.Status != models.StatusClosed {
		t.Errorf("Expected status closed, got %s", info.Status)
	}

	// Closing again conflicts
	testutil.AssertStatus(t, closeReq(), 409)
}

func TestPostUnknownQuestion(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuestionHandler(env.facility, env.store, env.cfg)

	req := testutil.MakeRequest("POST", "/questions/nope/post", nil, env.adminHeaders())
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	h.PostQuestion(w, req)
	testutil.AssertStatus(t, w, 404)
}
