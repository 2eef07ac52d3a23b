package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"assessment-engine/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": sampleQuiz()}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}
}

func TestQuizRepositorySaveQuiz(t *testing.T) {
	loader := NewStaticQuizLoader(nil)
	repo := NewQuizRepository(loader, time.Minute)

	if err := repo.SaveQuiz(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("save: %v", err)
	}
	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get saved quiz: %v", err)
	}
	if len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	readOnly := NewQuizRepository(&countingLoader{QuizLoader: loader}, time.Minute)
	if err := readOnly.SaveQuiz(context.Background(), sampleQuiz()); err == nil {
		t.Fatalf("expected read-only loader to reject saves")
	}
}

type countingLoader struct {
	QuizLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:              "q1",
				Type:            domain.QuestionSingleChoice,
				Prompt:          "What is 2 + 2?",
				Options:         []string{"3", "4"},
				CanonicalAnswer: domain.SingleAnswer("4"),
				Topic:           "arithmetic",
			},
		},
	}
}
