package app

import (
	"context"
	"fmt"
	"time"

	"assessment-engine/internal/assessment"
	"assessment-engine/internal/domain"
	"github.com/google/uuid"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// ResultStore abstracts where evaluation history lives (in-memory, Redis, Postgres).
type ResultStore interface {
	AppendResults(ctx context.Context, results []domain.StoredResult) error
	ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error)
}

// Submission is a graded, persisted quiz attempt.
type Submission struct {
	ID     string
	UserID string
	QuizID string
	domain.QuizScoreSummary
}

// AssessmentService contains the assessment use cases.
type AssessmentService struct {
	quizzes    QuizRepository
	results    ResultStore
	scorer     *assessment.Scorer
	evaluator  *assessment.Evaluator
	aggregator *assessment.Aggregator
	now        func() time.Time
}

func NewAssessmentService(quizzes QuizRepository, results ResultStore, evaluator *assessment.Evaluator) *AssessmentService {
	return NewAssessmentServiceWithClock(quizzes, results, evaluator, time.Now)
}

// NewAssessmentServiceWithClock is test-only for deterministic timestamps.
func NewAssessmentServiceWithClock(quizzes QuizRepository, results ResultStore, evaluator *assessment.Evaluator, now func() time.Time) *AssessmentService {
	if evaluator == nil {
		evaluator = assessment.NewEvaluator()
	}
	return &AssessmentService{
		quizzes:    quizzes,
		results:    results,
		scorer:     assessment.NewScorer(evaluator),
		evaluator:  evaluator,
		aggregator: assessment.NewAggregator(),
		now:        now,
	}
}

// UploadQuiz validates and stores quiz content.
func (s *AssessmentService) UploadQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	return s.quizzes.SaveQuiz(ctx, quiz)
}

// Quiz returns stored quiz content.
func (s *AssessmentService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" {
		return domain.Quiz{}, fmt.Errorf("%w: quizId is required", domain.ErrMissingInput)
	}
	return s.quizzes.GetQuiz(ctx, quizID)
}

// SubmitQuiz scores answers against a stored quiz and records every result
// in the user's history.
func (s *AssessmentService) SubmitQuiz(ctx context.Context, userID, quizID string, answers map[string]domain.AnswerValue) (Submission, error) {
	if userID == "" || quizID == "" {
		return Submission{}, fmt.Errorf("%w: userId and quizId are required", domain.ErrMissingInput)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Submission{}, err
	}
	summary, err := s.scorer.Score(quiz.Questions, answers)
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		ID:               uuid.NewString(),
		UserID:           userID,
		QuizID:           quizID,
		QuizScoreSummary: summary,
	}
	submittedAt := s.now()
	stored := make([]domain.StoredResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		stored = append(stored, domain.StoredResult{
			SubmissionID: sub.ID,
			UserID:       userID,
			QuizID:       quizID,
			Result:       r,
			SubmittedAt:  submittedAt,
		})
	}
	if err := s.results.AppendResults(ctx, stored); err != nil {
		return Submission{}, fmt.Errorf("record results: %w", err)
	}
	return sub, nil
}

// Grade scores caller-supplied questions without touching storage.
func (s *AssessmentService) Grade(questions []domain.Question, answers map[string]domain.AnswerValue) (domain.QuizScoreSummary, error) {
	return s.scorer.Score(questions, answers)
}

// EvaluateAnswer grades a single question of a stored quiz.
func (s *AssessmentService) EvaluateAnswer(ctx context.Context, quizID, questionID string, answer domain.AnswerValue) (domain.EvaluationResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	q, ok := quiz.Question(questionID)
	if !ok {
		return domain.EvaluationResult{}, domain.ErrQuestionNotFound
	}
	return domain.EvaluationResult{
		QuestionID:      q.ID,
		QuestionType:    q.Type,
		IsCorrect:       s.evaluator.Evaluate(q, answer),
		UserAnswer:      answer,
		CanonicalAnswer: q.CanonicalAnswer,
		Topic:           q.Topic,
	}, nil
}

// Weaknesses aggregates the user's stored history. An empty history yields
// an empty ranking, not an error.
func (s *AssessmentService) Weaknesses(ctx context.Context, userID string, includeZeroError bool) ([]domain.TopicWeakness, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrMissingInput)
	}
	history, err := s.results.ListResults(ctx, userID)
	if err != nil {
		return nil, err
	}
	topics := make([]domain.TopicResult, 0, len(history))
	for _, r := range history {
		topics = append(topics, r.TopicResult())
	}
	return s.aggregator.Aggregate(topics, includeZeroError)
}

// AnalyzeWeaknesses aggregates a caller-supplied history.
func (s *AssessmentService) AnalyzeWeaknesses(results []domain.TopicResult, includeZeroError bool) ([]domain.TopicWeakness, error) {
	return s.aggregator.Aggregate(results, includeZeroError)
}
