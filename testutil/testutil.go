// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jagbag/dvoting/auth"
	"github.com/jagbag/dvoting/cliparse"
	"github.com/jagbag/dvoting/db"
	"github.com/jagbag/dvoting/models"
)

// SetupTestDB opens a fresh in-memory SQLite database with the full schema.
// Each test gets its own database, keyed by the test name. The connection
// pool is pinned to one connection so the shared-cache memory database
// survives for the whole test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: "sqlite",
		DatabaseURL:  ":memory:",
		AdminKeySalt: "test-admin-salt",
	}
}

// AdminKey returns the admin key matching GetTestConfig's salt.
func AdminKey() string {
	return auth.GenerateAdminKey(auth.AdminRealm, GetTestConfig().AdminKeySalt)
}

// CreateTestQuestion inserts a question with the given options and returns it.
// The question is in the NEW state; post it through the facility if a test
// needs it polling.
func CreateTestQuestion(t *testing.T, store *db.Store, qtype string, options ...string) models.Question {
	t.Helper()

	questionID, _ := auth.GenerateID(16)
	q := models.Question{
		ID:        questionID,
		Text:      "Test question?",
		Type:      qtype,
		CreatedAt: time.Now(),
	}
	for i, label := range options {
		optID, _ := auth.GenerateID(12)
		q.Options = append(q.Options, models.ResponseOption{
			ID:         optID,
			QuestionID: questionID,
			Label:      label,
			Position:   i,
		})
	}
	if err := store.CreateQuestion(q); err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}
	return q
}

// CreateTestVoter registers a voter and returns their token
func CreateTestVoter(t *testing.T, store *db.Store, username string, allowed bool) string {
	t.Helper()

	token, _ := auth.GenerateVoterToken()
	err := store.CreateVoter(models.Voter{
		Username:      username,
		Token:         token,
		AllowedToVote: allowed,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
