package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"assessment-engine/internal/assessment"
	"assessment-engine/internal/config"
	"assessment-engine/internal/domain"
	"github.com/spf13/cobra"
)

type gradeOutput struct {
	QuizID string `json:"quizId"`
	domain.QuizScoreSummary
	Weaknesses []domain.TopicWeakness `json:"weaknesses,omitempty"`
}

// NewGradeCmd scores an answers file against a quiz file without a server.
func NewGradeCmd(configPath *string) *cobra.Command {
	var (
		quizPath    string
		answersPath string
		weaknesses  bool
	)
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a JSON answers file against a JSON quiz file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []assessment.Option
			if cfg, err := config.Load(*configPath); err == nil {
				opts = cfg.EvaluatorOptions()
			} else if !os.IsNotExist(err) {
				return err
			}
			return runGrade(cmd.OutOrStdout(), quizPath, answersPath, weaknesses, opts...)
		},
	}
	cmd.Flags().StringVar(&quizPath, "quiz", "", "path to quiz JSON")
	cmd.Flags().StringVar(&answersPath, "answers", "", "path to answers JSON keyed by question id")
	cmd.Flags().BoolVar(&weaknesses, "weaknesses", false, "include per-topic weaknesses")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func runGrade(out io.Writer, quizPath, answersPath string, withWeaknesses bool, opts ...assessment.Option) error {
	var quiz domain.Quiz
	if err := readJSON(quizPath, &quiz); err != nil {
		return err
	}
	if err := quiz.Validate(); err != nil {
		return err
	}
	var answers map[string]domain.AnswerValue
	if err := readJSON(answersPath, &answers); err != nil {
		return err
	}

	summary, err := assessment.NewScorer(assessment.NewEvaluator(opts...)).Score(quiz.Questions, answers)
	if err != nil {
		return err
	}
	result := gradeOutput{QuizID: quiz.ID, QuizScoreSummary: summary}
	if withWeaknesses {
		topics := make([]domain.TopicResult, 0, len(summary.Results))
		for _, r := range summary.Results {
			topics = append(topics, domain.TopicResult{Topic: r.Topic, IsCorrect: r.IsCorrect})
		}
		result.Weaknesses, err = assessment.NewAggregator().Aggregate(topics, false)
		if err != nil {
			return err
		}
	}
	log.Printf("graded quiz %s: %d/%d", quiz.ID, summary.CorrectCount, summary.TotalCount)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
