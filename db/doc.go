// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and persistence for the CTF.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes. The SQL is portable across SQLite (modernc.org/sqlite) and
PostgreSQL (lib/pq); timestamps are always bound as parameters rather
than defaulted in SQL.

# Tables

The schema includes:

  - question: Question text, counting type, lifecycle timestamps
  - response_option: Ordered options per question
  - vote: Accepted votes, keyed by pseudonymous chit numbers
  - voter: Registered voters and their approval flag

No signing key material is ever stored. Keys live only in process
memory; the question table records when a key existed (posted_at,
closed_at), never the key itself.

# Relationships

	question 1──* response_option
	question 1──* vote

Option and vote rows cascade when their question is deleted, which can
only happen while the question is still new and has no votes.

# Vote Uniqueness

The vote table enforces UNIQUE(question_id, voter_chit_number, ranking).
Concurrent submissions of the same vote race on this constraint; the
loser gets ErrDuplicate from InsertVote and re-reads the winner's row to
decide between an idempotent OK and a contradiction.

# Store

Store wraps *sql.DB with typed accessors. Not-found lookups return
ErrNotFound; unique violations surface as ErrDuplicate. Everything else
is wrapped with context about the failed operation.
*/
package db
