package assessment

import (
	"sort"
	"strings"

	"assessment-engine/internal/domain"
)

// Aggregator ranks topics by how often they were answered incorrectly.
type Aggregator struct{}

func NewAggregator() *Aggregator { return &Aggregator{} }

// Aggregate groups results by topic and returns them sorted by error rate
// descending, then attempts descending, then topic name. When
// includeZeroError is false, topics without a wrong attempt are dropped.
// The output depends only on the input; nothing is retained between calls.
func (a *Aggregator) Aggregate(results []domain.TopicResult, includeZeroError bool) ([]domain.TopicWeakness, error) {
	if results == nil {
		return nil, domain.ErrMissingInput
	}

	index := make(map[string]int)
	stats := make([]domain.TopicWeakness, 0)
	for _, r := range results {
		topic := strings.TrimSpace(r.Topic)
		if topic == "" {
			topic = domain.UntaggedTopic
		}
		i, ok := index[topic]
		if !ok {
			i = len(stats)
			index[topic] = i
			stats = append(stats, domain.TopicWeakness{Topic: topic})
		}
		stats[i].TotalAttempts++
		if !r.IsCorrect {
			stats[i].WrongAttempts++
		}
	}

	out := make([]domain.TopicWeakness, 0, len(stats))
	for _, w := range stats {
		if !includeZeroError && w.WrongAttempts == 0 {
			continue
		}
		w.ErrorRate = float64(w.WrongAttempts) / float64(w.TotalAttempts) * 100
		out = append(out, w)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ErrorRate != out[j].ErrorRate {
			return out[i].ErrorRate > out[j].ErrorRate
		}
		if out[i].TotalAttempts != out[j].TotalAttempts {
			return out[i].TotalAttempts > out[j].TotalAttempts
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}
