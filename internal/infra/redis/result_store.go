package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assessment-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ResultStore keeps each user's evaluation history in a Redis list:
// RPUSH results:{userID} {json StoredResult}
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultStore refreshes the list TTL on every append; ttl <= 0 keeps history forever.
func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) AppendResults(ctx context.Context, results []domain.StoredResult) error {
	if len(results) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	touched := make(map[string]struct{})
	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		pipe.RPush(ctx, s.key(r.UserID), data)
		touched[r.UserID] = struct{}{}
	}
	if s.ttl > 0 {
		for userID := range touched {
			pipe.Expire(ctx, s.key(userID), s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append results: %w", err)
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	raw, err := s.client.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.StoredResult, 0, len(raw))
	for _, item := range raw {
		var r domain.StoredResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *ResultStore) key(userID string) string {
	return "results:" + userID
}
