package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Well-known policy names.
const (
	PolicyGeneral = "general"
	PolicyUpload  = "upload"
	PolicyChat    = "chat"
	PolicyAuth    = "auth"
)

// Policy bounds the number of admitted requests per identity within a window.
type Policy struct {
	Name        string
	Window      time.Duration
	MaxRequests int
}

// DefaultPolicies are used when configuration does not override them.
func DefaultPolicies() []Policy {
	return []Policy{
		{Name: PolicyGeneral, Window: time.Minute, MaxRequests: 100},
		{Name: PolicyUpload, Window: time.Minute, MaxRequests: 10},
		{Name: PolicyChat, Window: time.Minute, MaxRequests: 20},
		{Name: PolicyAuth, Window: 15 * time.Minute, MaxRequests: 5},
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds a denied caller should wait, at least 1.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Admitter is implemented by every admission backend used by the HTTP layer.
type Admitter interface {
	Admit(ctx context.Context, policy, identity string) Decision
}

type recordKey struct {
	policy   string
	identity string
}

type record struct {
	count   int
	resetAt time.Time
}

// Limiter is a process-local fixed-window admission controller. A single
// mutex guards the record table so check-then-increment is atomic.
type Limiter struct {
	policies map[string]Policy
	fallback string
	now      func() time.Time

	mu        sync.Mutex
	records   map[recordKey]*record
	nextSweep time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// WithFallbackPolicy names the policy applied to unknown policy names.
func WithFallbackPolicy(name string) LimiterOption {
	return func(l *Limiter) { l.fallback = name }
}

// NewLimiter builds a limiter for the given policies. Policies with a
// non-positive window or limit are ignored.
func NewLimiter(policies []Policy, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		policies: make(map[string]Policy, len(policies)),
		fallback: PolicyGeneral,
		now:      time.Now,
		records:  make(map[recordKey]*record),
	}
	for _, p := range policies {
		if p.Window <= 0 || p.MaxRequests <= 0 {
			continue
		}
		l.policies[p.Name] = p
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Policy resolves a policy name, falling back to the configured default.
func (l *Limiter) Policy(name string) (Policy, bool) {
	if p, ok := l.policies[name]; ok {
		return p, true
	}
	p, ok := l.policies[l.fallback]
	return p, ok
}

// Check admits or denies one request from identity under the named policy.
// Unknown policies use the fallback policy; if none is configured the
// request is admitted.
func (l *Limiter) Check(policyName, identity string) Decision {
	policy, ok := l.Policy(policyName)
	if !ok {
		return Decision{Allowed: true, Remaining: -1}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	key := recordKey{policy: policy.Name, identity: identity}
	rec, ok := l.records[key]
	if !ok || now.After(rec.resetAt) {
		rec = &record{count: 1, resetAt: now.Add(policy.Window)}
		l.records[key] = rec
		l.trackLocked(rec.resetAt)
		return Decision{Allowed: true, Limit: policy.MaxRequests, Remaining: policy.MaxRequests - 1, ResetAt: rec.resetAt}
	}
	if rec.count >= policy.MaxRequests {
		return Decision{Allowed: false, Limit: policy.MaxRequests, Remaining: 0, ResetAt: rec.resetAt}
	}
	rec.count++
	return Decision{Allowed: true, Limit: policy.MaxRequests, Remaining: policy.MaxRequests - rec.count, ResetAt: rec.resetAt}
}

// Admit implements Admitter.
func (l *Limiter) Admit(_ context.Context, policy, identity string) Decision {
	return l.Check(policy, identity)
}

// Len reports the number of live records.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// sweepLocked deletes expired records. It only scans once the earliest
// known reset time has passed.
func (l *Limiter) sweepLocked(now time.Time) {
	if l.nextSweep.IsZero() || !now.After(l.nextSweep) {
		return
	}
	var next time.Time
	for k, rec := range l.records {
		if now.After(rec.resetAt) {
			delete(l.records, k)
			continue
		}
		if next.IsZero() || rec.resetAt.Before(next) {
			next = rec.resetAt
		}
	}
	l.nextSweep = next
}

func (l *Limiter) trackLocked(resetAt time.Time) {
	if l.nextSweep.IsZero() || resetAt.Before(l.nextSweep) {
		l.nextSweep = resetAt
	}
}
