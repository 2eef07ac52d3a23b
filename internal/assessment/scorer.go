package assessment

import (
	"math"

	"assessment-engine/internal/domain"
)

// Scorer drives an Evaluator across a full question set.
type Scorer struct {
	evaluator *Evaluator
}

func NewScorer(evaluator *Evaluator) *Scorer {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &Scorer{evaluator: evaluator}
}

// Score grades every question in input order. A missing answer is graded as
// an empty Choice. Only an absent question list or answer map is fatal.
func (s *Scorer) Score(questions []domain.Question, answers map[string]domain.AnswerValue) (domain.QuizScoreSummary, error) {
	if len(questions) == 0 || answers == nil {
		return domain.QuizScoreSummary{}, domain.ErrMissingInput
	}

	summary := domain.QuizScoreSummary{
		Results:    make([]domain.EvaluationResult, 0, len(questions)),
		TotalCount: len(questions),
	}
	for _, q := range questions {
		answer := answers[q.ID]
		correct := s.evaluator.Evaluate(q, answer)
		if correct {
			summary.CorrectCount++
		}
		summary.Results = append(summary.Results, domain.EvaluationResult{
			QuestionID:      q.ID,
			QuestionType:    q.Type,
			IsCorrect:       correct,
			UserAnswer:      answer,
			CanonicalAnswer: q.CanonicalAnswer,
			Topic:           q.Topic,
		})
	}
	summary.Percentage = Percentage(summary.CorrectCount, summary.TotalCount)
	return summary, nil
}

// Percentage returns round(correct / total * 100), or 0 for an empty total.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
