package domain

import "errors"

var (
	// ErrMissingInput is returned when a required field (question list, answer map, result history) is absent.
	ErrMissingInput = errors.New("missing input")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuiz is returned when uploaded quiz content fails validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
