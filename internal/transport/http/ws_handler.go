package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
	"assessment-engine/internal/ratelimit"
	"github.com/gorilla/websocket"
)

const wsReadLimit = 64 << 10

// WSHandler runs practice sessions: answers are graded one at a time and
// collected until the client finishes the quiz. Every inbound message is
// admitted like a request: answers under the chat policy, finish under the
// general policy shared with REST submissions.
type WSHandler struct {
	service  *app.AssessmentService
	admitter ratelimit.Admitter
	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, admitter ratelimit.Admitter) *WSHandler {
	return &WSHandler{
		service:  service,
		admitter: admitter,
		now:      time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string             `json:"questionId"`
	Value      domain.AnswerValue `json:"value"`
}

type readyPayload struct {
	QuizID    string           `json:"quizId"`
	Title     string           `json:"title,omitempty"`
	Questions []questionPrompt `json:"questions"`
}

// questionPrompt is a question without its canonical answer.
type questionPrompt struct {
	ID      string              `json:"id"`
	Type    domain.QuestionType `json:"type"`
	Prompt  string              `json:"prompt,omitempty"`
	Options []string            `json:"options,omitempty"`
	Topic   string              `json:"topic,omitempty"`
}

type summaryPayload struct {
	SubmissionID string `json:"submissionId"`
	domain.QuizScoreSummary
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// ServeWS upgrades the request and runs one practice session on it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	identity := ratelimit.IdentityKey(r.Header)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	ctx := r.Context()
	quiz, err := h.service.Quiz(ctx, quizID)
	if err != nil {
		writeServiceError(conn, err)
		return
	}
	if !write(conn, "ready", newReadyPayload(quiz)) {
		return
	}

	answers := make(map[string]domain.AnswerValue)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error: %v", err)
			}
			return
		}

		policy := ratelimit.PolicyChat
		if inbound.Type == "finish" {
			policy = ratelimit.PolicyGeneral
		}
		if d := h.admitter.Admit(ctx, policy, identity); !d.Allowed {
			if !write(conn, "error", errorPayload{Message: "too many requests, please try again later", RetryAfter: d.RetryAfter(h.now())}) {
				return
			}
			continue
		}

		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !writeError(conn, "invalid answer payload") {
					return
				}
				continue
			}
			result, err := h.service.EvaluateAnswer(ctx, quizID, payload.QuestionID, payload.Value)
			if err != nil {
				if !writeServiceError(conn, err) {
					return
				}
				continue
			}
			answers[payload.QuestionID] = payload.Value
			if !write(conn, "answerResult", result) {
				return
			}
		case "finish":
			sub, err := h.service.SubmitQuiz(ctx, userID, quizID, answers)
			if err != nil {
				if !writeServiceError(conn, err) {
					return
				}
				continue
			}
			answers = make(map[string]domain.AnswerValue)
			if !write(conn, "summary", summaryPayload{SubmissionID: sub.ID, QuizScoreSummary: sub.QuizScoreSummary}) {
				return
			}
		default:
			if !writeError(conn, "unsupported message type") {
				return
			}
		}
	}
}

func newReadyPayload(quiz domain.Quiz) readyPayload {
	out := readyPayload{QuizID: quiz.ID, Title: quiz.Title, Questions: make([]questionPrompt, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		out.Questions = append(out.Questions, questionPrompt{
			ID:      q.ID,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Options: q.Options,
			Topic:   q.Topic,
		})
	}
	return out
}

func write[T any](conn *websocket.Conn, typ string, payload T) bool {
	if err := conn.WriteJSON(outboundMessage[T]{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
		return false
	}
	return true
}

func writeError(conn *websocket.Conn, msg string) bool {
	return write(conn, "error", errorPayload{Message: msg})
}

// writeServiceError reports err with the same message a REST client would get.
func writeServiceError(conn *websocket.Conn, err error) bool {
	_, msg := statusFor(err)
	return writeError(conn, msg)
}
