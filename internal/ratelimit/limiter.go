// Package ratelimit provides per-tool token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a per-key token bucket limiter. Each key gets its own bucket
// with the configured rate and burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	nowFunc func() time.Time
}

// NewLimiter creates a limiter refilling perSecond tokens per second. burst is
// both the bucket size and the initial token count.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n requests per minute.
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60.0, burst)
}

// Allow reports whether a request for key may proceed now, consuming a token
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	now := l.nowFunc()
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// Tool names served by the MCP server.
const (
	ToolModels     = "jaggdy_models"
	ToolCandidates = "jaggdy_candidates"
	ToolSimulate   = "jaggdy_simulate"
	ToolChain      = "jaggdy_chain"
	ToolScenarios  = "jaggdy_scenarios"
)

// NewToolLimiters creates the per-tool limiters. perMinute and burst apply to
// the cheap tools; simulation and chain analysis get a quarter of the rate
// and at most a quarter of the burst.
func NewToolLimiters(perMinute float64, burst int) ToolLimiters {
	heavyBurst := burst / 4
	if heavyBurst < 1 {
		heavyBurst = 1
	}
	return ToolLimiters{
		ToolModels:     PerMinute(perMinute, burst),
		ToolCandidates: PerMinute(perMinute, burst),
		ToolScenarios:  PerMinute(perMinute, burst),
		ToolSimulate:   PerMinute(perMinute/4, heavyBurst),
		ToolChain:      PerMinute(perMinute/4, heavyBurst),
	}
}

// CheckLimit checks the rate limit for toolName. Tools without a configured
// limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}
