package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assessment-engine/internal/domain"
	"github.com/uptrace/bun"
)

type evaluationResultRow struct {
	bun.BaseModel `bun:"table:evaluation_results,alias:er"`

	ID              int64           `bun:"id,pk,autoincrement"`
	SubmissionID    string          `bun:"submission_id,notnull"`
	UserID          string          `bun:"user_id,notnull"`
	QuizID          string          `bun:"quiz_id,notnull"`
	QuestionID      string          `bun:"question_id,notnull"`
	QuestionType    string          `bun:"question_type,notnull"`
	Topic           string          `bun:"topic,notnull"`
	IsCorrect       bool            `bun:"is_correct,notnull"`
	UserAnswer      json.RawMessage `bun:"user_answer,type:jsonb"`
	CanonicalAnswer json.RawMessage `bun:"canonical_answer,type:jsonb"`
	SubmittedAt     time.Time       `bun:"submitted_at,notnull"`
}

// ResultStore persists evaluation history through bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) AppendResults(ctx context.Context, results []domain.StoredResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]evaluationResultRow, 0, len(results))
	for _, r := range results {
		userAnswer, err := json.Marshal(r.Result.UserAnswer)
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		canonical, err := json.Marshal(r.Result.CanonicalAnswer)
		if err != nil {
			return fmt.Errorf("marshal canonical answer: %w", err)
		}
		rows = append(rows, evaluationResultRow{
			SubmissionID:    r.SubmissionID,
			UserID:          r.UserID,
			QuizID:          r.QuizID,
			QuestionID:      r.Result.QuestionID,
			QuestionType:    string(r.Result.QuestionType),
			Topic:           r.Result.Topic,
			IsCorrect:       r.Result.IsCorrect,
			UserAnswer:      userAnswer,
			CanonicalAnswer: canonical,
			SubmittedAt:     r.SubmittedAt,
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	var rows []evaluationResultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.StoredResult, 0, len(rows))
	for _, row := range rows {
		r := domain.StoredResult{
			SubmissionID: row.SubmissionID,
			UserID:       row.UserID,
			QuizID:       row.QuizID,
			SubmittedAt:  row.SubmittedAt,
			Result: domain.EvaluationResult{
				QuestionID:   row.QuestionID,
				QuestionType: domain.QuestionType(row.QuestionType),
				Topic:        row.Topic,
				IsCorrect:    row.IsCorrect,
			},
		}
		if len(row.UserAnswer) > 0 {
			if err := json.Unmarshal(row.UserAnswer, &r.Result.UserAnswer); err != nil {
				return nil, fmt.Errorf("unmarshal answer: %w", err)
			}
		}
		if len(row.CanonicalAnswer) > 0 {
			if err := json.Unmarshal(row.CanonicalAnswer, &r.Result.CanonicalAnswer); err != nil {
				return nil, fmt.Errorf("unmarshal canonical answer: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}
