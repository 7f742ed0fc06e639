// Package crawler walks a roster of accounts through the provider's
// paginated endpoints and persists every page it receives.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/time/rate"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/storage"
	"btc-sentiment-lab/internal/twitter"
)

// provider is the subset of the twitter client the crawler needs.
type provider interface {
	LookupUser(ctx context.Context, handle string) (string, error)
	TimelinePage(ctx context.Context, accountID string, q twitter.Query) (*twitter.Page, error)
	ConversationPage(ctx context.Context, conversationID string, q twitter.Query) (*twitter.Page, error)
}

// Window bounds what a crawl run asks the provider for. Top-level
// posts and replies may use different lower bounds because reply
// search only reaches back a few days.
type Window struct {
	PostsStart   time.Time
	RepliesStart time.Time
	End          time.Time
}

// Result summarizes a finished crawl run.
type Result struct {
	PostsFetched   int
	TotalRequests  int
	SkippedHandles []string
}

// task is one unit of paginated work on the stack.
type task struct {
	// conversationID is empty for timeline tasks.
	accountID      string
	handle         string
	conversationID string
	token          string
}

func (t task) isConversation() bool { return t.conversationID != "" }

// Crawler drains a roster account by account. Within an account it
// keeps a last-in-first-out stack of page tasks, so a timeline page's
// reply threads are fetched before the next timeline page.
type Crawler struct {
	client         provider
	authors        storage.AuthorStore
	posts          storage.RawPostStore
	quota          QuotaConfig
	includeReplies bool
	limiter        *rate.Limiter
	logger         *log.Logger
	metrics        *observability.Metrics

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithQuota overrides the default request quota.
func WithQuota(q QuotaConfig) Option {
	return func(c *Crawler) { c.quota = q }
}

// WithReplies enables conversation expansion for fetched posts.
func WithReplies(enabled bool) Option {
	return func(c *Crawler) { c.includeReplies = enabled }
}

// WithLimiter smooths request pacing inside the quota window.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Crawler) { c.limiter = l }
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Crawler) { c.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// New creates a Crawler over the given provider client and stores.
func New(client provider, authors storage.AuthorStore, posts storage.RawPostStore, opts ...Option) *Crawler {
	c := &Crawler{
		client:  client,
		authors: authors,
		posts:   posts,
		quota:   DefaultQuota(),
		logger:  log.New(os.Stdout, "[crawler] ", log.LstdFlags),
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl fetches every roster account's timeline inside the window and
// persists each page before requesting the next one. Accounts whose
// handle cannot be resolved are skipped and reported in the result;
// any other provider or storage error aborts the run.
func (c *Crawler) Crawl(ctx context.Context, roster []domain.RosterEntry, window Window) (*Result, error) {
	session := NewSession(c.quota)
	result := &Result{}

	for _, entry := range roster {
		accountID := entry.AccountID
		if accountID == "" {
			resolved, err := c.resolveHandle(ctx, session, entry.Handle)
			if errors.Is(err, twitter.ErrNotFound) {
				c.logger.Printf("handle %s not found, skipping", entry.Handle)
				result.SkippedHandles = append(result.SkippedHandles, entry.Handle)
				if c.metrics != nil {
					c.metrics.HandleResolutionFailures.Inc()
				}
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("resolving handle %s: %w", entry.Handle, err)
			}
			accountID = resolved
		}

		if err := c.drainAccount(ctx, session, accountID, entry.Handle, window); err != nil {
			return nil, fmt.Errorf("crawling account %s: %w", entry.Handle, err)
		}
	}

	result.PostsFetched = session.PostsFetched
	result.TotalRequests = session.TotalRequests
	if c.metrics != nil {
		c.metrics.LastSuccessfulCrawl.SetToCurrentTime()
	}
	c.logger.Printf("crawl finished: %d posts in %d requests, %d handles skipped",
		result.PostsFetched, result.TotalRequests, len(result.SkippedHandles))
	return result, nil
}

// drainAccount runs the page task stack for one account to exhaustion.
func (c *Crawler) drainAccount(ctx context.Context, session *Session, accountID, handle string, window Window) error {
	stack := []task{{accountID: accountID, handle: handle}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		page, err := c.fetchPage(ctx, session, t, window)
		if err != nil {
			return err
		}
		if page.Empty() {
			continue
		}

		if err := c.persistPage(ctx, page); err != nil {
			return err
		}
		session.PostsFetched += len(page.Posts)

		// Continuations go on the stack before this page's reply
		// threads, so the threads drain first.
		if page.NextToken != "" {
			next := t
			next.token = page.NextToken
			stack = append(stack, next)
		}
		if !t.isConversation() && c.includeReplies {
			for i := len(page.Posts) - 1; i >= 0; i-- {
				p := page.Posts[i]
				if p.ConversationID == "" {
					continue
				}
				stack = append(stack, task{conversationID: p.ConversationID})
			}
		}
	}
	return nil
}

// fetchPage issues one provider request, honoring the quota window and
// backpressure cooldowns. A rate-limited request is retried with the
// same pagination token after the cooldown.
func (c *Crawler) fetchPage(ctx context.Context, session *Session, t task, window Window) (*twitter.Page, error) {
	for {
		if session.QuotaExhausted() {
			c.logger.Printf("request quota reached after %d requests, sleeping %s",
				session.RequestCount, c.quota.QuotaWindow)
			if c.metrics != nil {
				c.metrics.QuotaSuspensions.Inc()
			}
			if err := c.sleep(ctx, c.quota.QuotaWindow); err != nil {
				return nil, err
			}
			session.ResetWindow()
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		q := twitter.Query{
			StartTime: window.PostsStart,
			EndTime:   window.End,
			NextToken: t.token,
		}

		var page *twitter.Page
		var err error
		if t.isConversation() {
			q.StartTime = window.RepliesStart
			page, err = c.client.ConversationPage(ctx, t.conversationID, q)
		} else {
			page, err = c.client.TimelinePage(ctx, t.accountID, q)
		}
		session.RecordRequest()
		if c.metrics != nil {
			c.metrics.ProviderRequests.WithLabelValues(t.resource()).Inc()
		}

		if errors.Is(err, twitter.ErrRateLimited) {
			c.logger.Printf("provider backpressure on %s, cooling down %s",
				t.resource(), c.quota.RateLimitCooldown)
			if c.metrics != nil {
				c.metrics.RateLimitCooldowns.Inc()
			}
			if err := c.sleep(ctx, c.quota.RateLimitCooldown); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return page, nil
	}
}

func (t task) resource() string {
	if t.isConversation() {
		return "conversation"
	}
	return "timeline"
}

// persistPage writes one page as a unit: authors first, then posts,
// so the posts' author references always resolve.
func (c *Crawler) persistPage(ctx context.Context, page *twitter.Page) error {
	if len(page.Authors) > 0 {
		if err := c.authors.UpsertBulk(ctx, page.Authors); err != nil {
			return fmt.Errorf("upserting authors: %w", err)
		}
		if c.metrics != nil {
			c.metrics.AuthorsStored.Add(float64(len(page.Authors)))
		}
	}
	if len(page.Posts) > 0 {
		if err := c.posts.UpsertBulk(ctx, page.Posts); err != nil {
			return fmt.Errorf("upserting posts: %w", err)
		}
		if c.metrics != nil {
			c.metrics.PostsStored.Add(float64(len(page.Posts)))
		}
	}
	return nil
}

// resolveHandle maps a roster handle to an account id, charging the
// lookup against the session quota like any other request.
func (c *Crawler) resolveHandle(ctx context.Context, session *Session, handle string) (string, error) {
	if session.QuotaExhausted() {
		if err := c.sleep(ctx, c.quota.QuotaWindow); err != nil {
			return "", err
		}
		session.ResetWindow()
	}
	accountID, err := c.client.LookupUser(ctx, handle)
	session.RecordRequest()
	if c.metrics != nil {
		c.metrics.ProviderRequests.WithLabelValues("user_lookup").Inc()
	}
	return accountID, err
}

// sleepCtx blocks for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
