package crawler

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/storage/memory"
	"btc-sentiment-lab/internal/twitter"
)

// fakeProvider scripts page responses and records the order of calls.
type fakeProvider struct {
	users         map[string]string          // handle -> account id
	timelines     map[string][]*twitter.Page // key: accountID + "|" + token
	conversations map[string][]*twitter.Page // key: conversationID + "|" + token
	calls         []string
}

func (f *fakeProvider) LookupUser(_ context.Context, handle string) (string, error) {
	f.calls = append(f.calls, "lookup:"+handle)
	accountID, ok := f.users[handle]
	if !ok {
		return "", twitter.ErrNotFound
	}
	return accountID, nil
}

func (f *fakeProvider) TimelinePage(_ context.Context, accountID string, q twitter.Query) (*twitter.Page, error) {
	f.calls = append(f.calls, "timeline:"+accountID+"|"+q.NextToken)
	return f.next(f.timelines, accountID+"|"+q.NextToken)
}

func (f *fakeProvider) ConversationPage(_ context.Context, conversationID string, q twitter.Query) (*twitter.Page, error) {
	f.calls = append(f.calls, "conversation:"+conversationID+"|"+q.NextToken)
	return f.next(f.conversations, conversationID+"|"+q.NextToken)
}

func (f *fakeProvider) next(pages map[string][]*twitter.Page, key string) (*twitter.Page, error) {
	queue := pages[key]
	if len(queue) == 0 {
		return &twitter.Page{}, nil
	}
	page := queue[0]
	pages[key] = queue[1:]
	if page == nil {
		return nil, twitter.ErrRateLimited
	}
	return page, nil
}

func testWindow() Window {
	end := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		PostsStart:   end.AddDate(0, -1, 0),
		RepliesStart: end.AddDate(0, 0, -6),
		End:          end,
	}
}

func post(id, authorID, conversationID string) *domain.RawPost {
	return &domain.RawPost{
		PostID:         id,
		AuthorID:       authorID,
		ConversationID: conversationID,
		Text:           "text " + id,
		CreatedAt:      time.Date(2021, 2, 10, 12, 0, 0, 0, time.UTC),
	}
}

func author(id string) *domain.Author {
	return &domain.Author{AccountID: id, DisplayName: "acct " + id}
}

// page builds a provider page the way the wire decoder does: result
// count matching the posts, authors included once per distinct id.
func page(nextToken string, posts ...*domain.RawPost) *twitter.Page {
	p := &twitter.Page{
		Posts:       posts,
		ResultCount: len(posts),
		NextToken:   nextToken,
	}
	seen := make(map[string]bool)
	for _, rp := range posts {
		if !seen[rp.AuthorID] {
			seen[rp.AuthorID] = true
			p.Authors = append(p.Authors, author(rp.AuthorID))
		}
	}
	return p
}

func newTestCrawler(p *fakeProvider, opts ...Option) (*Crawler, *memory.AuthorStore, *memory.RawPostStore) {
	authors := memory.NewAuthorStore()
	posts := memory.NewRawPostStore(authors)
	opts = append(opts, WithLogger(log.New(discard{}, "", 0)))
	c := New(p, authors, posts, opts...)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, authors, posts
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestCrawlPersistsTimelinePages(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{
			"1|":   {page("t2", post("10", "1", "10"))},
			"1|t2": {page("", post("11", "1", "11"))},
		},
	}
	c, authors, posts := newTestCrawler(p)

	result, err := c.Crawl(context.Background(), []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow())
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}
	if result.PostsFetched != 2 {
		t.Errorf("PostsFetched = %d, want 2", result.PostsFetched)
	}
	if n, _ := posts.Count(context.Background()); n != 2 {
		t.Errorf("stored posts = %d, want 2", n)
	}
	if n, _ := authors.Count(context.Background()); n != 1 {
		t.Errorf("stored authors = %d, want 1", n)
	}
}

func TestCrawlTreatsZeroResultPageAsTerminal(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{
			// A zero-result page ends pagination even when the provider
			// attaches a continuation token.
			"1|": {{ResultCount: 0, NextToken: "t2"}},
		},
	}
	c, _, posts := newTestCrawler(p)

	result, err := c.Crawl(context.Background(), []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow())
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("calls = %v, want the initial page only", p.calls)
	}
	if result.PostsFetched != 0 {
		t.Errorf("PostsFetched = %d, want 0", result.PostsFetched)
	}
	if n, _ := posts.Count(context.Background()); n != 0 {
		t.Errorf("stored posts = %d, want 0", n)
	}
}

func TestCrawlDrainsConversationsBeforeNextPage(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{
			"1|":   {page("t2", post("10", "1", "10"), post("11", "1", "11"))},
			"1|t2": {page("", post("12", "1", "12"))},
		},
		conversations: map[string][]*twitter.Page{
			"10|": {page("", post("20", "2", "10"))},
			"11|": {page("")},
		},
	}
	c, _, _ := newTestCrawler(p, WithReplies(true))

	if _, err := c.Crawl(context.Background(), []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow()); err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}

	want := []string{
		"timeline:1|",
		"conversation:10|",
		"conversation:11|",
		"timeline:1|t2",
		"conversation:12|",
	}
	if len(p.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", p.calls, want)
	}
	for i := range want {
		if p.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, p.calls[i], want[i])
		}
	}
}

func TestCrawlRetriesSameTokenAfterBackpressure(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{
			"1|": {
				nil, // scripted rate-limit response
				page("", post("10", "1", "10")),
			},
		},
	}
	c, _, posts := newTestCrawler(p)

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := c.Crawl(context.Background(), []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow()); err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}
	if len(slept) != 1 || slept[0] != DefaultQuota().RateLimitCooldown {
		t.Errorf("slept = %v, want one cooldown of %s", slept, DefaultQuota().RateLimitCooldown)
	}
	if len(p.calls) != 2 || p.calls[0] != p.calls[1] {
		t.Errorf("calls = %v, want the same request twice", p.calls)
	}
	if n, _ := posts.Count(context.Background()); n != 1 {
		t.Errorf("stored posts = %d, want 1", n)
	}
}

func TestCrawlSuspendsOnQuota(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{
			"1|":   {page("t2", post("10", "1", "10"))},
			"1|t2": {page("", post("11", "1", "11"))},
		},
	}
	quota := QuotaConfig{
		RequestLimit:      2,
		SafetyMargin:      1,
		QuotaWindow:       16 * time.Minute,
		RateLimitCooldown: time.Minute,
	}
	c, _, _ := newTestCrawler(p, WithQuota(quota))

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	result, err := c.Crawl(context.Background(), []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow())
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}
	if len(slept) != 1 || slept[0] != quota.QuotaWindow {
		t.Errorf("slept = %v, want one quota window of %s", slept, quota.QuotaWindow)
	}
	if result.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", result.TotalRequests)
	}
}

func TestCrawlSkipsUnresolvedHandles(t *testing.T) {
	p := &fakeProvider{
		users: map[string]string{
			"known": "1",
		},
		timelines: map[string][]*twitter.Page{
			"1|": {page("", post("10", "1", "10"))},
		},
	}
	c, _, posts := newTestCrawler(p)

	roster := []domain.RosterEntry{{Handle: "gone"}, {Handle: "known"}}
	result, err := c.Crawl(context.Background(), roster, testWindow())
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}
	if len(result.SkippedHandles) != 1 || result.SkippedHandles[0] != "gone" {
		t.Errorf("SkippedHandles = %v, want [gone]", result.SkippedHandles)
	}
	if n, _ := posts.Count(context.Background()); n != 1 {
		t.Errorf("stored posts = %d, want 1", n)
	}
}

func TestCrawlSetsLastSuccessfulCrawl(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{
			"1|": {page("", post("10", "1", "10"))},
		},
	}
	m := observability.NewMetrics("test_crawl_gauge")
	c, _, _ := newTestCrawler(p, WithMetrics(m))

	if _, err := c.Crawl(context.Background(), []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow()); err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}
	if testutil.ToFloat64(m.LastSuccessfulCrawl) == 0 {
		t.Error("LastSuccessfulCrawl gauge not set after a successful run")
	}
}

func TestCrawlStopsOnCanceledContext(t *testing.T) {
	p := &fakeProvider{
		timelines: map[string][]*twitter.Page{},
	}
	c, _, _ := newTestCrawler(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Crawl(ctx, []domain.RosterEntry{{Handle: "acct", AccountID: "1"}}, testWindow())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Crawl() error = %v, want context.Canceled", err)
	}
}

func TestSessionQuotaAccounting(t *testing.T) {
	s := NewSession(QuotaConfig{RequestLimit: 3, SafetyMargin: 1})

	for i := 0; i < 2; i++ {
		if s.QuotaExhausted() {
			t.Fatalf("quota exhausted after %d requests", i)
		}
		s.RecordRequest()
	}
	if !s.QuotaExhausted() {
		t.Error("quota not exhausted at the adjusted ceiling")
	}

	s.ResetWindow()
	if s.QuotaExhausted() {
		t.Error("quota still exhausted after window reset")
	}
	if s.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", s.TotalRequests)
	}
}
