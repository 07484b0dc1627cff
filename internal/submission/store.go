// Package submission persists the terminal results of play sessions.
package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edudesk/gamehost/internal/minigame"
)

var ErrDuplicate = errors.New("submission already recorded")

// Record is a stored terminal result.
type Record struct {
	ID                string    `json:"id"`
	GameID            string    `json:"gameId"`
	Score             int       `json:"score"`
	Passed            bool      `json:"passed"`
	TotalTimeSeconds  float64   `json:"totalTimeSeconds"`
	QuestionsAnswered int       `json:"questionsAnswered"`
	ElapsedSeconds    int       `json:"elapsedSeconds"`
	SubmittedAt       time.Time `json:"submittedAt"`
}

// Store records results in the local SQLite database. Submissions are keyed
// by their idempotency key: repeating one returns the original record.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Submit(ctx context.Context, sub minigame.Submission) (*minigame.SubmitResult, error) {
	if sub.IdempotencyKey == "" {
		return nil, errors.New("submission without idempotency key")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate result ID: %w", err)
	}
	answers := sub.Answers
	if answers == nil {
		answers = []minigame.Answer{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encoding answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_results (id, idempotency_key, game_id, score, passed,
			total_time_seconds, questions_answered, elapsed_seconds, answers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, id.String(), sub.IdempotencyKey, sub.GameID, sub.Report.Score, boolInt(sub.Report.Passed),
		sub.Report.TotalTimeSeconds, sub.Report.QuestionsAnswered, sub.ElapsedSeconds, string(answersJSON))
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}

	rec, err := s.byKey(ctx, sub.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	return &minigame.SubmitResult{
		ID:          rec.ID,
		Score:       rec.Score,
		Passed:      rec.Passed,
		SubmittedAt: rec.SubmittedAt,
	}, nil
}

func (s *Store) byKey(ctx context.Context, key string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, score, passed, total_time_seconds, questions_answered,
			elapsed_seconds, submitted_at
		FROM game_results
		WHERE idempotency_key = ?
	`, key)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("load result: %w", err)
	}
	return rec, nil
}

// ListByGame returns the results recorded for a game, newest first.
func (s *Store) ListByGame(ctx context.Context, gameID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, score, passed, total_time_seconds, questions_answered,
			elapsed_seconds, submitted_at
		FROM game_results
		WHERE game_id = ?
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec         Record
		passed      int
		submittedAt string
	)
	if err := row.Scan(&rec.ID, &rec.GameID, &rec.Score, &passed, &rec.TotalTimeSeconds,
		&rec.QuestionsAnswered, &rec.ElapsedSeconds, &submittedAt); err != nil {
		return Record{}, err
	}
	rec.Passed = passed != 0
	rec.SubmittedAt, _ = time.Parse(time.RFC3339Nano, submittedAt)
	return rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
