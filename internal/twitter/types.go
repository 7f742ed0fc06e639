package twitter

import (
	"errors"
	"fmt"
)

// Provider errors.
var (
	// ErrRateLimited indicates the provider reported "Too Many Requests"
	// inside an otherwise successful transport response. The caller is
	// expected to cool down and retry the same page.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrNotFound indicates the requested handle could not be resolved.
	ErrNotFound = errors.New("handle not found")
)

// MalformedResponseError indicates a non-success transport response or an
// undecodable body. Fatal for the call: the crawl run surfaces it and the
// scheduler re-attempts on the next cycle.
type MalformedResponseError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// apiEnvelope is the wire shape shared by timeline and search endpoints.
type apiEnvelope struct {
	Data     []apiPost   `json:"data"`
	Includes apiIncludes `json:"includes"`
	Meta     apiMeta     `json:"meta"`
	Title    string      `json:"title"` // set on in-band provider errors
}

type apiIncludes struct {
	Users []apiUser `json:"users"`
}

type apiMeta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

type apiPost struct {
	ID             string         `json:"id"`
	Text           string         `json:"text"`
	CreatedAt      string         `json:"created_at"`
	ConversationID string         `json:"conversation_id"`
	AuthorID       string         `json:"author_id"`
	PublicMetrics  apiPostMetrics `json:"public_metrics"`
}

type apiPostMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

type apiUser struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Username      string         `json:"username"`
	CreatedAt     string         `json:"created_at"`
	Verified      bool           `json:"verified"`
	PublicMetrics apiUserMetrics `json:"public_metrics"`
}

type apiUserMetrics struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
	TweetCount     int `json:"tweet_count"`
	ListedCount    int `json:"listed_count"`
}

type apiUserLookup struct {
	Data *apiUser `json:"data"`
	// Provider reports unknown handles as an in-band error list.
	Errors []struct {
		Title string `json:"title"`
	} `json:"errors"`
}
