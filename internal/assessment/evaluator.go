package assessment

import (
	"strings"

	"assessment-engine/internal/domain"
)

const (
	DefaultItemOverlap      = 0.7
	DefaultKeywordOverlap   = 0.6
	DefaultMinKeywordLength = 3
)

// Option configures an Evaluator.
type Option func(*config)

type config struct {
	itemOverlap      float64 // share of comma-list items that must match
	keywordOverlap   float64 // share of canonical keywords that must match
	minKeywordLength int     // keywords are tokens strictly longer than this
}

func WithItemOverlap(f float64) Option    { return func(c *config) { c.itemOverlap = f } }
func WithKeywordOverlap(f float64) Option { return func(c *config) { c.keywordOverlap = f } }
func WithMinKeywordLength(n int) Option   { return func(c *config) { c.minKeywordLength = n } }

// Strategy grades one question modality.
type Strategy interface {
	Evaluate(q domain.Question, answer domain.AnswerValue) bool
}

// Evaluator routes by question type to the matching Strategy. It holds no
// mutable state and is safe for concurrent use.
type Evaluator struct {
	strategies map[domain.QuestionType]Strategy
	fallback   Strategy
}

// NewEvaluator installs the built-in strategies.
func NewEvaluator(opts ...Option) *Evaluator {
	cfg := &config{
		itemOverlap:      DefaultItemOverlap,
		keywordOverlap:   DefaultKeywordOverlap,
		minKeywordLength: DefaultMinKeywordLength,
	}
	for _, o := range opts {
		o(cfg)
	}
	exact := exactStrategy{}
	return &Evaluator{
		strategies: map[domain.QuestionType]Strategy{
			domain.QuestionSingleChoice: exact,
			domain.QuestionBoolean:      exact,
			domain.QuestionMultiChoice:  setStrategy{},
			domain.QuestionFreeText: freeTextStrategy{
				itemOverlap:      cfg.itemOverlap,
				keywordOverlap:   cfg.keywordOverlap,
				minKeywordLength: cfg.minKeywordLength,
			},
		},
		fallback: plainStrategy{},
	}
}

// Evaluate reports whether answer is correct for q. Malformed input is
// graded as incorrect rather than failing.
func (e *Evaluator) Evaluate(q domain.Question, answer domain.AnswerValue) bool {
	if q.CanonicalAnswer.IsEmpty() {
		return false
	}
	s, ok := e.strategies[q.Type]
	if !ok {
		s = e.fallback
	}
	return s.Evaluate(q, answer)
}

// --- Strategies ---

// exactStrategy handles single-choice and boolean questions.
type exactStrategy struct{}

func (exactStrategy) Evaluate(q domain.Question, answer domain.AnswerValue) bool {
	got := normalize(answer.String())
	if got == "" {
		return false
	}
	for _, want := range q.CanonicalAnswer.Values() {
		if normalize(want) == got {
			return true
		}
	}
	return false
}

// setStrategy requires the selected options to equal the canonical set.
type setStrategy struct{}

func (setStrategy) Evaluate(q domain.Question, answer domain.AnswerValue) bool {
	selected, ok := answer.Items()
	if !ok {
		selected = splitList(answer.String())
	}
	want := toSet(q.CanonicalAnswer.Values())
	if !q.CanonicalAnswer.IsSet() {
		want = toSet(splitList(q.CanonicalAnswer.String()))
	}
	got := toSet(selected)
	if len(got) == 0 {
		return false
	}
	return setEqual(want, got)
}

// plainStrategy compares against the canonical answer rendered as one
// comma-joined string.
type plainStrategy struct{}

func (plainStrategy) Evaluate(q domain.Question, answer domain.AnswerValue) bool {
	submitted := answer.String()
	if items, ok := answer.Items(); ok {
		submitted = strings.Join(items, ",")
	}
	got := normalize(submitted)
	return got != "" && got == normalize(strings.Join(q.CanonicalAnswer.Values(), ","))
}

type freeTextStrategy struct {
	itemOverlap      float64
	keywordOverlap   float64
	minKeywordLength int
}

func (s freeTextStrategy) Evaluate(q domain.Question, answer domain.AnswerValue) bool {
	submitted := answer.String()
	if normalize(submitted) == "" {
		return false
	}
	for _, want := range q.CanonicalAnswer.Values() {
		if s.matches(want, submitted) {
			return true
		}
	}
	return false
}

// matches applies, in order: exact match, comma-list item overlap, keyword overlap.
func (s freeTextStrategy) matches(canonical, submitted string) bool {
	want := normalize(canonical)
	got := normalize(submitted)
	if want == "" {
		return false
	}
	if want == got {
		return true
	}
	if strings.Contains(want, ",") {
		items := splitList(want)
		if len(items) == 0 {
			return false
		}
		hits := 0
		for _, item := range splitList(got) {
			if containsEither(items, item) {
				hits++
			}
		}
		return hits >= threshold(s.itemOverlap, len(items))
	}

	keywords := s.keywords(want)
	if len(keywords) == 0 {
		return false
	}
	answered := s.keywords(got)
	hits := 0
	for _, k := range keywords {
		if containsEither(answered, k) {
			hits++
		}
	}
	return hits >= threshold(s.keywordOverlap, len(keywords))
}

func (s freeTextStrategy) keywords(text string) []string {
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > s.minKeywordLength {
			out = append(out, f)
		}
	}
	return out
}
