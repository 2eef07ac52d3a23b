package redis

import (
	"context"
	"log"
	"time"

	"assessment-engine/internal/ratelimit"
	"github.com/redis/go-redis/v9"
)

// admitScript runs the fixed-window state machine atomically.
// KEYS[1] = record key; ARGV = now (ms), window (ms), max requests.
// Returns {allowed, remaining, resetAt(ms)}.
var admitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset'))
if count == nil or reset == nil or now > reset then
	reset = now + window
	redis.call('HSET', KEYS[1], 'count', 1, 'reset', reset)
	redis.call('PEXPIRE', KEYS[1], window + 1000)
	return {1, max - 1, reset}
end
if count >= max then
	return {0, 0, reset}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, max - count, reset}
`)

// AdmissionStore shares admission counters across instances through Redis.
// Stale records expire through key TTLs. When Redis is unreachable it
// degrades to the process-local limiter so admission never fails.
type AdmissionStore struct {
	client *redis.Client
	local  *ratelimit.Limiter
	now    func() time.Time
}

func NewAdmissionStore(client *redis.Client, local *ratelimit.Limiter) *AdmissionStore {
	return &AdmissionStore{client: client, local: local, now: time.Now}
}

// NewAdmissionStoreWithClock is test-only for deterministic windows.
func NewAdmissionStoreWithClock(client *redis.Client, local *ratelimit.Limiter, now func() time.Time) *AdmissionStore {
	return &AdmissionStore{client: client, local: local, now: now}
}

// Admit implements ratelimit.Admitter.
func (s *AdmissionStore) Admit(ctx context.Context, policyName, identity string) ratelimit.Decision {
	policy, ok := s.local.Policy(policyName)
	if !ok {
		return ratelimit.Decision{Allowed: true, Remaining: -1}
	}

	vals, err := admitScript.Run(ctx, s.client, []string{s.key(policy.Name, identity)},
		s.now().UnixMilli(), policy.Window.Milliseconds(), policy.MaxRequests).Int64Slice()
	if err != nil || len(vals) != 3 {
		log.Printf("redis admission failed, using local limiter: %v", err)
		return s.local.Check(policyName, identity)
	}
	return ratelimit.Decision{
		Allowed:   vals[0] == 1,
		Limit:     policy.MaxRequests,
		Remaining: int(vals[1]),
		ResetAt:   time.UnixMilli(vals[2]),
	}
}

func (s *AdmissionStore) key(policy, identity string) string {
	return "ratelimit:" + policy + ":" + identity
}
