package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGradeCommand(t *testing.T) {
	dir := t.TempDir()
	quizPath := filepath.Join(dir, "quiz.json")
	answersPath := filepath.Join(dir, "answers.json")
	writeFile(t, quizPath, `{
  "id": "quiz-1",
  "questions": [
    {"id": "q1", "type": "single-choice", "canonicalAnswer": "B", "topic": "joins"},
    {"id": "q2", "type": "free-text", "canonicalAnswer": "primary key constraint", "topic": "keys"},
    {"id": "q3", "type": "boolean", "canonicalAnswer": "true"}
  ]
}`)
	writeFile(t, answersPath, `{"q1": "b", "q2": "a foreign key", "q3": true}`)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"grade", "--config", filepath.Join(dir, "missing.yaml"), "--quiz", quizPath, "--answers", answersPath, "--weaknesses"})
	if err := root.Execute(); err != nil {
		t.Fatalf("grade failed: %v", err)
	}

	var got struct {
		QuizID     string `json:"quizId"`
		Score      int    `json:"score"`
		Total      int    `json:"totalQuestions"`
		Percentage int    `json:"percentage"`
		Weaknesses []struct {
			Topic string `json:"topic"`
		} `json:"weaknesses"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if got.QuizID != "quiz-1" || got.Score != 2 || got.Total != 3 || got.Percentage != 67 {
		t.Fatalf("unexpected output %+v", got)
	}
	if len(got.Weaknesses) != 1 || got.Weaknesses[0].Topic != "keys" {
		t.Fatalf("expected keys weakness, got %+v", got.Weaknesses)
	}
}

func TestGradeRejectsInvalidQuiz(t *testing.T) {
	dir := t.TempDir()
	quizPath := filepath.Join(dir, "quiz.json")
	answersPath := filepath.Join(dir, "answers.json")
	writeFile(t, quizPath, `{"id": "quiz-1", "questions": []}`)
	writeFile(t, answersPath, `{}`)

	var out bytes.Buffer
	if err := runGrade(&out, quizPath, answersPath, false); err == nil {
		t.Fatalf("expected invalid quiz error")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
