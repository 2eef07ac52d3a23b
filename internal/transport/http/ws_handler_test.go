package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"assessment-engine/internal/infra/memory"
	"assessment-engine/internal/ratelimit"
	"github.com/gorilla/websocket"
)

func TestPracticeSessionFlow(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, nil))
	defer server.Close()

	conn := dialPractice(t, server.URL, "quizId=quiz-1&userId=u1")
	defer conn.Close()

	_, payload := readNext(conn, t, "ready")
	questions, _ := payload["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions in ready payload, got %v", payload)
	}
	for _, q := range questions {
		if _, leaked := q.(map[string]any)["canonicalAnswer"]; leaked {
			t.Fatalf("ready payload must not carry answers")
		}
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"questionId": "q1", "value": "b"}})
	_, result := readNext(conn, t, "answerResult")
	if result["isCorrect"] != true || result["topic"] != "joins" {
		t.Fatalf("unexpected answer result %v", result)
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"questionId": "missing", "value": "x"}})
	readNext(conn, t, "error")

	send(t, conn, map[string]any{"type": "finish"})
	_, summary := readNext(conn, t, "summary")
	if summary["score"] != float64(1) || summary["totalQuestions"] != float64(2) || summary["percentage"] != float64(50) {
		t.Fatalf("unexpected summary %v", summary)
	}
	if id, _ := summary["submissionId"].(string); id == "" {
		t.Fatalf("expected submission id in summary")
	}

	send(t, conn, map[string]any{"type": "bogus"})
	readNext(conn, t, "error")
}

func TestPracticeSessionUnknownQuiz(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, nil))
	defer server.Close()

	conn := dialPractice(t, server.URL, "quizId=nope&userId=u1")
	defer conn.Close()

	_, payload := readNext(conn, t, "error")
	if !strings.Contains(payload["message"].(string), "not found") {
		t.Fatalf("expected not found message, got %v", payload)
	}
}

func TestPracticeSessionRequiresParams(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, nil))
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/practice?quizId=quiz-1"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake failure without userId")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func dialPractice(t *testing.T, baseURL, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/practice?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func TestPracticeSessionAdmitsEveryMessage(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewLimiter([]ratelimit.Policy{
		{Name: ratelimit.PolicyChat, Window: time.Minute, MaxRequests: 3},
		{Name: ratelimit.PolicyGeneral, Window: time.Minute, MaxRequests: 2},
	}, ratelimit.WithClock(func() time.Time { return now }))
	results := memory.NewResultStore()
	server := httptest.NewServer(newTestRouterWith(t, RouterConfig{Admitter: limiter}, results))
	defer server.Close()

	// The upgrade itself takes one chat slot.
	conn := dialPractice(t, server.URL, "quizId=quiz-1&userId=u1")
	defer conn.Close()
	readNext(conn, t, "ready")

	answer := map[string]any{"type": "answer", "payload": map[string]any{"questionId": "q1", "value": "B"}}
	for i := 0; i < 2; i++ {
		send(t, conn, answer)
		readNext(conn, t, "answerResult")
	}
	send(t, conn, answer)
	_, denied := readNext(conn, t, "error")
	if retry, _ := denied["retryAfter"].(float64); retry < 1 {
		t.Fatalf("expected retry hint on denial, got %v", denied)
	}

	for i := 0; i < 2; i++ {
		send(t, conn, map[string]any{"type": "finish"})
		readNext(conn, t, "summary")
	}
	for i := 0; i < 3; i++ {
		send(t, conn, map[string]any{"type": "finish"})
		readNext(conn, t, "error")
	}

	stored, err := results.ListResults(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("expected 2 admitted submissions of 2 questions, got %d results", len(stored))
	}
}

func TestPracticeSessionHidesInternalErrors(t *testing.T) {
	server := httptest.NewServer(newTestRouterWith(t, RouterConfig{}, failingResults{err: errors.New("dial tcp 10.0.0.5:6379: connection refused")}))
	defer server.Close()

	conn := dialPractice(t, server.URL, "quizId=quiz-1&userId=u1")
	defer conn.Close()
	readNext(conn, t, "ready")

	send(t, conn, map[string]any{"type": "finish"})
	_, payload := readNext(conn, t, "error")
	if payload["message"] != "internal error" {
		t.Fatalf("expected generic message, got %v", payload)
	}
}
