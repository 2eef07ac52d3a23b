package domain

import "time"

// QuestionType selects the comparison rules used to grade a question.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice-set"
	QuestionBoolean      QuestionType = "boolean"
	QuestionFreeText     QuestionType = "free-text"
)

// UntaggedTopic groups results whose question carried no topic label.
const UntaggedTopic = "uncategorized"

// Question is immutable once a quiz is generated.
type Question struct {
	ID              string          `json:"id" validate:"required"`
	Type            QuestionType    `json:"type"`
	Prompt          string          `json:"prompt,omitempty"`
	Options         []string        `json:"options,omitempty"`
	CanonicalAnswer CanonicalAnswer `json:"canonicalAnswer"`
	Topic           string          `json:"topic,omitempty"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions" validate:"required,min=1,unique=ID,dive"`
}

// EvaluationResult is the graded outcome of one question in one submission.
type EvaluationResult struct {
	QuestionID      string          `json:"questionId"`
	QuestionType    QuestionType    `json:"questionType"`
	IsCorrect       bool            `json:"isCorrect"`
	UserAnswer      AnswerValue     `json:"userAnswer"`
	CanonicalAnswer CanonicalAnswer `json:"correctAnswer"`
	Topic           string          `json:"topic,omitempty"`
}

// QuizScoreSummary is derived from a submission and never persisted by the scorer.
type QuizScoreSummary struct {
	Results      []EvaluationResult `json:"results"`
	CorrectCount int                `json:"score"`
	TotalCount   int                `json:"totalQuestions"`
	Percentage   int                `json:"percentage"`
}

// TopicResult is the minimal unit consumed by the weakness aggregator.
type TopicResult struct {
	Topic     string `json:"topic"`
	IsCorrect bool   `json:"isCorrect"`
}

// TopicWeakness summarizes performance on one topic.
type TopicWeakness struct {
	Topic         string  `json:"topic"`
	WrongAttempts int     `json:"wrong"`
	TotalAttempts int     `json:"total"`
	ErrorRate     float64 `json:"errorRate"`
}

// StoredResult is an EvaluationResult as recorded in a user's history.
type StoredResult struct {
	SubmissionID string           `json:"submissionId"`
	UserID       string           `json:"userId"`
	QuizID       string           `json:"quizId"`
	Result       EvaluationResult `json:"result"`
	SubmittedAt  time.Time        `json:"submittedAt"`
}

// TopicResult projects the stored result onto the aggregator input.
func (r StoredResult) TopicResult() TopicResult {
	return TopicResult{Topic: r.Result.Topic, IsCorrect: r.Result.IsCorrect}
}
