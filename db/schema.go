// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The SQL sticks to the portable subset both drivers accept.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// No table ever holds key material. Signing keys live only in process
// memory; question status is derived from the timestamp pair, never stored.
const schema = `
-- Questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    counting_type TEXT NOT NULL DEFAULT 'SINGLE' CHECK (counting_type IN ('SINGLE', 'MULTIPLE', 'RANKED_CHOICE')),
    created_at TIMESTAMP NOT NULL,
    posted_at TIMESTAMP,
    closed_at TIMESTAMP
);

-- Response options
CREATE TABLE IF NOT EXISTS response_option (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_response_option_question_id ON response_option(question_id);

-- Votes. Immutable once written. The UNIQUE constraint is what makes the
-- insert-if-absent vote write atomic under concurrent submissions.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES question(id),
    response TEXT NOT NULL,
    voter_chit_number TEXT NOT NULL,
    response_chit_number TEXT NOT NULL,
    ranking INTEGER NOT NULL,
    received_at TIMESTAMP NOT NULL,
    UNIQUE (question_id, voter_chit_number, ranking)
);

CREATE INDEX IF NOT EXISTS idx_vote_question_id ON vote(question_id);

-- Voters
CREATE TABLE IF NOT EXISTS voter (
    username TEXT PRIMARY KEY,
    token TEXT NOT NULL UNIQUE,
    allowed_to_vote BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_voter_token ON voter(token);
`
