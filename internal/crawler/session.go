package crawler

import "time"

// QuotaConfig bounds how hard a crawl run may lean on the provider.
type QuotaConfig struct {
	// RequestLimit is the provider's request ceiling per quota window.
	RequestLimit int
	// SafetyMargin is subtracted from RequestLimit before the crawler
	// suspends, so a run never lands exactly on the ceiling.
	SafetyMargin int
	// QuotaWindow is how long the crawler sleeps once the adjusted
	// ceiling is reached. Slightly longer than the provider's window.
	QuotaWindow time.Duration
	// RateLimitCooldown is the pause after the provider signals
	// backpressure inside an otherwise successful response.
	RateLimitCooldown time.Duration
}

// DefaultQuota mirrors the provider's documented 450 requests per
// 15 minute window for app-auth timeline reads.
func DefaultQuota() QuotaConfig {
	return QuotaConfig{
		RequestLimit:      450,
		SafetyMargin:      1,
		QuotaWindow:       16 * time.Minute,
		RateLimitCooldown: 20 * time.Minute,
	}
}

// Session tracks request accounting for a single crawl run. Counters
// are per-run values, never shared between runs.
type Session struct {
	// RequestCount is the number of requests issued in the current
	// quota window. Reset to zero after a quota suspension.
	RequestCount int
	// TotalRequests is the number of requests issued over the whole
	// run, across quota windows.
	TotalRequests int
	// PostsFetched is the number of posts received over the whole run.
	PostsFetched int

	quota QuotaConfig
}

// NewSession returns a fresh session governed by the given quota.
func NewSession(quota QuotaConfig) *Session {
	return &Session{quota: quota}
}

// QuotaExhausted reports whether the next request would cross the
// adjusted ceiling.
func (s *Session) QuotaExhausted() bool {
	return s.RequestCount >= s.quota.RequestLimit-s.quota.SafetyMargin
}

// RecordRequest accounts for one issued request.
func (s *Session) RecordRequest() {
	s.RequestCount++
	s.TotalRequests++
}

// ResetWindow starts a new quota window.
func (s *Session) ResetWindow() {
	s.RequestCount = 0
}
