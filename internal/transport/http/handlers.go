package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Handler exposes the assessment use cases over REST.
type Handler struct {
	service *app.AssessmentService
}

func NewHandler(service *app.AssessmentService) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	UserID  string                        `json:"userId" validate:"required"`
	Answers map[string]domain.AnswerValue `json:"answers" validate:"required"`
}

type submitResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submissionId"`
	domain.QuizScoreSummary
}

type gradeRequest struct {
	Questions []domain.Question             `json:"questions" validate:"required,min=1"`
	Answers   map[string]domain.AnswerValue `json:"answers" validate:"required"`
}

type gradeResponse struct {
	Success bool `json:"success"`
	domain.QuizScoreSummary
}

type weaknessRequest struct {
	Results          []domain.TopicResult `json:"results" validate:"required"`
	IncludeZeroError bool                 `json:"includeZeroError"`
}

type weaknessResponse struct {
	Success    bool                   `json:"success"`
	Weaknesses []domain.TopicWeakness `json:"weaknesses"`
}

// UploadQuiz handles POST /api/quizzes.
func (h *Handler) UploadQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if !decode(w, r, &quiz) {
		return
	}
	if err := h.service.UploadQuiz(r.Context(), quiz); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "quizId": quiz.ID})
}

// SubmitQuiz handles POST /api/quizzes/{quizID}/submissions.
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) || !valid(w, req) {
		return
	}
	sub, err := h.service.SubmitQuiz(r.Context(), req.UserID, chi.URLParam(r, "quizID"), req.Answers)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, submitResponse{
		Success:          true,
		SubmissionID:     sub.ID,
		QuizScoreSummary: sub.QuizScoreSummary,
	})
}

// Grade handles POST /api/grade.
func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if !decode(w, r, &req) || !valid(w, req) {
		return
	}
	summary, err := h.service.Grade(req.Questions, req.Answers)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, gradeResponse{Success: true, QuizScoreSummary: summary})
}

// UserWeaknesses handles GET /api/users/{userID}/weaknesses.
func (h *Handler) UserWeaknesses(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	ranking, err := h.service.Weaknesses(r.Context(), chi.URLParam(r, "userID"), all)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, weaknessResponse{Success: true, Weaknesses: ranking})
}

// AnalyzeWeaknesses handles POST /api/weaknesses.
func (h *Handler) AnalyzeWeaknesses(w http.ResponseWriter, r *http.Request) {
	var req weaknessRequest
	if !decode(w, r, &req) || !valid(w, req) {
		return
	}
	ranking, err := h.service.AnalyzeWeaknesses(req.Results, req.IncludeZeroError)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, weaknessResponse{Success: true, Weaknesses: ranking})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return false
	}
	return true
}

// valid checks the request's validate tags and writes the 400 on failure.
func valid(w http.ResponseWriter, v any) bool {
	if err := domain.ValidateStruct(v, domain.ErrMissingInput); err != nil {
		respondError(w, err)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	respondJSON(w, code, map[string]any{"success": false, "error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrMissingInput),
		errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusBadRequest, err.Error()
	default:
		log.Printf("request failed: %v", err)
		return http.StatusInternalServerError, "internal error"
	}
}
