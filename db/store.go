// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jagbag/dvoting/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store wraps the SQL connection with the queries the engine needs.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// isUniqueViolation matches the constraint errors the two drivers report.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") // postgres
}

// Questions

func (s *Store) CreateQuestion(q models.Question) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO question (id, text, counting_type, created_at, posted_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, q.ID, q.Text, q.Type, q.CreatedAt, q.PostedAt, q.ClosedAt)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	for _, opt := range q.Options {
		_, err = tx.Exec(`
			INSERT INTO response_option (id, question_id, label, position)
			VALUES ($1, $2, $3, $4)
		`, opt.ID, q.ID, opt.Label, opt.Position)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetQuestion(id string) (models.Question, error) {
	var q models.Question
	err := s.db.QueryRow(`
		SELECT id, text, counting_type, created_at, posted_at, closed_at
		FROM question
		WHERE id = $1
	`, id).Scan(&q.ID, &q.Text, &q.Type, &q.CreatedAt, &q.PostedAt, &q.ClosedAt)
	if err == sql.ErrNoRows {
		return models.Question{}, ErrNotFound
	}
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to query question: %w", err)
	}

	q.Options, err = s.questionOptions(q.ID)
	if err != nil {
		return models.Question{}, err
	}
	return q, nil
}

func (s *Store) questionOptions(questionID string) ([]models.ResponseOption, error) {
	rows, err := s.db.Query(`
		SELECT id, question_id, label, position
		FROM response_option
		WHERE question_id = $1
		ORDER BY position
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	options := []models.ResponseOption{}
	for rows.Next() {
		var opt models.ResponseOption
		if err := rows.Scan(&opt.ID, &opt.QuestionID, &opt.Label, &opt.Position); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (s *Store) ListQuestions() ([]models.Question, error) {
	rows, err := s.db.Query(`
		SELECT id, text, counting_type, created_at, posted_at, closed_at
		FROM question
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.CreatedAt, &q.PostedAt, &q.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range questions {
		questions[i].Options, err = s.questionOptions(questions[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return questions, nil
}

// UpdateQuestion replaces text, counting type, and options. Only legal while
// the question is NEW; the caller checks status first.
func (s *Store) UpdateQuestion(q models.Question) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE question SET text = $1, counting_type = $2 WHERE id = $3
	`, q.Text, q.Type, q.ID)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(`DELETE FROM response_option WHERE question_id = $1`, q.ID)
	if err != nil {
		return fmt.Errorf("failed to clear options: %w", err)
	}
	for _, opt := range q.Options {
		_, err = tx.Exec(`
			INSERT INTO response_option (id, question_id, label, position)
			VALUES ($1, $2, $3, $4)
		`, opt.ID, q.ID, opt.Label, opt.Position)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	return tx.Commit()
}

// MarkPosted records the posted timestamp; the question enters POLLING.
func (s *Store) MarkPosted(id string, postedAt time.Time) error {
	res, err := s.db.Exec(`UPDATE question SET posted_at = $1 WHERE id = $2`, postedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark question posted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkClosed records the closed timestamp; the question enters CLOSED.
func (s *Store) MarkClosed(id string, closedAt time.Time) error {
	res, err := s.db.Exec(`UPDATE question SET closed_at = $1 WHERE id = $2`, closedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark question closed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(id string) error {
	res, err := s.db.Exec(`DELETE FROM question WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = s.db.Exec(`DELETE FROM response_option WHERE question_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	return nil
}

// CloseStalePolling closes every question still marked as polling. Run at
// startup: the signing keys those questions depended on died with the last
// process, so no further chit for them can ever verify.
func (s *Store) CloseStalePolling(closedAt time.Time) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE question SET closed_at = $1
		WHERE posted_at IS NOT NULL AND closed_at IS NULL
	`, closedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to close stale questions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Votes

// InsertVote writes a vote; returns ErrDuplicate if a vote with the same
// (question, voter chit number, ranking) already exists. The UNIQUE
// constraint makes this check-and-insert atomic.
func (s *Store) InsertVote(v models.Vote) error {
	_, err := s.db.Exec(`
		INSERT INTO vote (id, question_id, response, voter_chit_number, response_chit_number, ranking, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.QuestionID, v.Response, v.VoterChitNumber, v.ResponseChitNumber, v.Ranking, v.ReceivedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// FindVote looks up the vote keyed by (question, voter chit number, ranking).
func (s *Store) FindVote(questionID, voterChitNumber string, ranking int) (models.Vote, error) {
	var v models.Vote
	err := s.db.QueryRow(`
		SELECT id, question_id, response, voter_chit_number, response_chit_number, ranking, received_at
		FROM vote
		WHERE question_id = $1 AND voter_chit_number = $2 AND ranking = $3
	`, questionID, voterChitNumber, ranking).Scan(
		&v.ID, &v.QuestionID, &v.Response, &v.VoterChitNumber, &v.ResponseChitNumber, &v.Ranking, &v.ReceivedAt,
	)
	if err == sql.ErrNoRows {
		return models.Vote{}, ErrNotFound
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to query vote: %w", err)
	}
	return v, nil
}

// ListVotes returns every vote on a question, in no guaranteed order.
func (s *Store) ListVotes(questionID string) ([]models.Vote, error) {
	rows, err := s.db.Query(`
		SELECT id, question_id, response, voter_chit_number, response_chit_number, ranking, received_at
		FROM vote
		WHERE question_id = $1
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.QuestionID, &v.Response, &v.VoterChitNumber, &v.ResponseChitNumber, &v.Ranking, &v.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// Voters

func (s *Store) CreateVoter(v models.Voter) error {
	_, err := s.db.Exec(`
		INSERT INTO voter (username, token, allowed_to_vote, created_at)
		VALUES ($1, $2, $3, $4)
	`, v.Username, v.Token, v.AllowedToVote, v.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}

func (s *Store) GetVoterByToken(token string) (models.Voter, error) {
	var v models.Voter
	err := s.db.QueryRow(`
		SELECT username, token, allowed_to_vote, created_at
		FROM voter
		WHERE token = $1
	`, token).Scan(&v.Username, &v.Token, &v.AllowedToVote, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Voter{}, ErrNotFound
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to query voter: %w", err)
	}
	return v, nil
}

func (s *Store) ListVoters() ([]models.Voter, error) {
	rows, err := s.db.Query(`
		SELECT username, token, allowed_to_vote, created_at
		FROM voter
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query voters: %w", err)
	}
	defer rows.Close()

	voters := []models.Voter{}
	for rows.Next() {
		var v models.Voter
		if err := rows.Scan(&v.Username, &v.Token, &v.AllowedToVote, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}

func (s *Store) SetAllowedToVote(username string, allowed bool) error {
	res, err := s.db.Exec(`UPDATE voter SET allowed_to_vote = $1 WHERE username = $2`, allowed, username)
	if err != nil {
		return fmt.Errorf("failed to update voter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
