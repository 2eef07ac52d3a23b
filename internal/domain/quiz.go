package domain

// Validate checks that uploaded quiz content can be graded: an id, at least
// one question, and non-empty unique question ids.
func (q Quiz) Validate() error {
	return ValidateStruct(q, ErrInvalidQuiz)
}

// Question looks up a question by ID.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}
