// Package twitter is an HTTP client for a Twitter-v2-style post provider:
// bearer-token auth, JSON responses, opaque continuation tokens.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"btc-sentiment-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.twitter.com"
	DefaultTimeout = 30 * time.Second

	// maxPageSize is the provider's page-size ceiling.
	maxPageSize = 100

	// providerTimeFormat is the wire format for time window parameters.
	providerTimeFormat = "2006-01-02T15:04:05Z"
)

// Client calls the post provider's paginated endpoints.
type Client struct {
	baseURL     string
	bearerToken string
	client      *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the provider base URL (tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new provider client.
func NewClient(bearerToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		bearerToken: bearerToken,
		client:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query bounds one page request.
type Query struct {
	StartTime time.Time
	EndTime   time.Time
	NextToken string // opaque continuation token, empty for the first page
}

// Page is one decoded page of posts with the authors the provider
// included alongside them.
type Page struct {
	Posts       []*domain.RawPost
	Authors     []*domain.Author
	ResultCount int
	NextToken   string // empty when pagination for the resource is done
}

// Empty reports whether the provider returned zero results, which makes
// the page terminal regardless of continuation token.
func (p *Page) Empty() bool {
	return p.ResultCount == 0
}

// LookupUser resolves a handle to its numeric account id.
// Returns ErrNotFound for unresolvable handles.
func (c *Client) LookupUser(ctx context.Context, handle string) (string, error) {
	reqURL := fmt.Sprintf("%s/2/users/by/username/%s", c.baseURL, url.PathEscape(handle))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return "", err
	}

	var lookup apiUserLookup
	if err := json.Unmarshal(body, &lookup); err != nil {
		return "", &MalformedResponseError{StatusCode: http.StatusOK, URL: reqURL, Body: truncate(body)}
	}
	if lookup.Data == nil || lookup.Data.ID == "" {
		return "", ErrNotFound
	}
	return lookup.Data.ID, nil
}

// TimelinePage fetches one page of an account's timeline.
func (c *Client) TimelinePage(ctx context.Context, accountID string, q Query) (*Page, error) {
	params := c.pageParams(q)
	reqURL := fmt.Sprintf("%s/2/users/%s/tweets?%s", c.baseURL, url.PathEscape(accountID), params.Encode())
	return c.fetchPage(ctx, reqURL)
}

// ConversationPage fetches one page of the replies under a conversation.
func (c *Client) ConversationPage(ctx context.Context, conversationID string, q Query) (*Page, error) {
	params := c.pageParams(q)
	params.Set("query", "conversation_id:"+conversationID)
	reqURL := fmt.Sprintf("%s/2/tweets/search/recent?%s", c.baseURL, params.Encode())
	return c.fetchPage(ctx, reqURL)
}

func (c *Client) pageParams(q Query) url.Values {
	params := url.Values{}
	params.Set("start_time", q.StartTime.UTC().Format(providerTimeFormat))
	params.Set("end_time", q.EndTime.UTC().Format(providerTimeFormat))
	params.Set("expansions", "author_id")
	params.Set("tweet.fields", "author_id,created_at,conversation_id,text,public_metrics")
	params.Set("user.fields", "name,username,created_at,verified,public_metrics")
	params.Set("max_results", strconv.Itoa(maxPageSize))
	if q.NextToken != "" {
		params.Set("pagination_token", q.NextToken)
	}
	return params
}

func (c *Client) fetchPage(ctx context.Context, reqURL string) (*Page, error) {
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponseError{StatusCode: http.StatusOK, URL: reqURL, Body: truncate(body)}
	}

	// The provider reports backpressure inside a 200 response.
	if envelope.Title == "Too Many Requests" {
		return nil, ErrRateLimited
	}

	return parsePage(&envelope)
}

// get performs one authorized GET. Non-2xx statuses and unreadable
// bodies are MalformedResponseError: fatal for the call, no retry here.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, URL: reqURL, Body: "unreadable body"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, URL: reqURL, Body: truncate(body)}
	}

	return body, nil
}

// parsePage converts a decoded envelope into domain records. Authors are
// deduplicated by account id; the provider may repeat them across posts.
func parsePage(envelope *apiEnvelope) (*Page, error) {
	page := &Page{
		ResultCount: envelope.Meta.ResultCount,
		NextToken:   envelope.Meta.NextToken,
	}

	seen := make(map[string]struct{}, len(envelope.Includes.Users))
	for _, u := range envelope.Includes.Users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}

		created, _ := time.Parse(time.RFC3339, u.CreatedAt)
		page.Authors = append(page.Authors, &domain.Author{
			AccountID:      u.ID,
			CreatedAt:      created,
			DisplayName:    u.Name,
			Verified:       u.Verified,
			FollowerCount:  u.PublicMetrics.FollowersCount,
			FollowingCount: u.PublicMetrics.FollowingCount,
			PostCount:      u.PublicMetrics.TweetCount,
			ListedCount:    u.PublicMetrics.ListedCount,
		})
	}

	for _, p := range envelope.Data {
		created, err := time.Parse(time.RFC3339, p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse post %s created_at %q: %w", p.ID, p.CreatedAt, err)
		}
		page.Posts = append(page.Posts, &domain.RawPost{
			PostID:         p.ID,
			CreatedAt:      created,
			ConversationID: p.ConversationID,
			AuthorID:       p.AuthorID,
			Text:           p.Text,
			RetweetCount:   p.PublicMetrics.RetweetCount,
			ReplyCount:     p.PublicMetrics.ReplyCount,
			LikeCount:      p.PublicMetrics.LikeCount,
			QuoteCount:     p.PublicMetrics.QuoteCount,
		})
	}

	return page, nil
}

func truncate(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
