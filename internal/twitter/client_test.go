package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const timelineEnvelope = `{
	"data": [
		{
			"id": "100",
			"text": "Bitcoin looking strong",
			"created_at": "2021-02-01T09:00:00.000Z",
			"conversation_id": "100",
			"author_id": "1",
			"public_metrics": {"retweet_count": 3, "reply_count": 1, "like_count": 25, "quote_count": 0}
		},
		{
			"id": "101",
			"text": "still early",
			"created_at": "2021-02-01T10:00:00.000Z",
			"conversation_id": "100",
			"author_id": "1",
			"public_metrics": {"retweet_count": 0, "reply_count": 0, "like_count": 2, "quote_count": 0}
		}
	],
	"includes": {
		"users": [
			{
				"id": "1",
				"name": "Alpha",
				"username": "alpha",
				"created_at": "2015-03-01T00:00:00.000Z",
				"verified": true,
				"public_metrics": {"followers_count": 1000, "following_count": 50, "tweet_count": 7500, "listed_count": 12}
			},
			{
				"id": "1",
				"name": "Alpha",
				"username": "alpha",
				"created_at": "2015-03-01T00:00:00.000Z",
				"verified": true,
				"public_metrics": {"followers_count": 1000, "following_count": 50, "tweet_count": 7500, "listed_count": 12}
			}
		]
	},
	"meta": {"result_count": 2, "next_token": "tok-2"}
}`

func testQuery() Query {
	return Query{
		StartTime: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2021, 2, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestTimelinePageParsesEnvelope(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Write([]byte(timelineEnvelope))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	page, err := client.TimelinePage(context.Background(), "1", testQuery())
	if err != nil {
		t.Fatalf("TimelinePage() error: %v", err)
	}

	if gotPath != "/2/users/1/tweets" {
		t.Errorf("path = %q, want /2/users/1/tweets", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", gotAuth)
	}
	if got := gotQuery["start_time"]; len(got) != 1 || got[0] != "2021-02-01T00:00:00Z" {
		t.Errorf("start_time = %v", got)
	}

	if page.ResultCount != 2 {
		t.Errorf("ResultCount = %d, want 2", page.ResultCount)
	}
	if page.NextToken != "tok-2" {
		t.Errorf("NextToken = %q, want tok-2", page.NextToken)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(page.Posts))
	}

	post := page.Posts[0]
	if post.PostID != "100" || post.AuthorID != "1" || post.ConversationID != "100" {
		t.Errorf("post ids = %s/%s/%s", post.PostID, post.AuthorID, post.ConversationID)
	}
	if post.LikeCount != 25 {
		t.Errorf("LikeCount = %d, want 25", post.LikeCount)
	}
	want := time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC)
	if !post.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", post.CreatedAt, want)
	}

	// Repeated includes collapse to one author.
	if len(page.Authors) != 1 {
		t.Fatalf("got %d authors, want 1", len(page.Authors))
	}
	author := page.Authors[0]
	if author.AccountID != "1" || !author.Verified || author.FollowerCount != 1000 {
		t.Errorf("author = %+v", author)
	}
}

func TestConversationPageSetsSearchQuery(t *testing.T) {
	var gotPath, gotSearch, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSearch = r.URL.Query().Get("query")
		gotToken = r.URL.Query().Get("pagination_token")
		w.Write([]byte(`{"meta": {"result_count": 0}}`))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	q := testQuery()
	q.NextToken = "tok-9"
	page, err := client.ConversationPage(context.Background(), "100", q)
	if err != nil {
		t.Fatalf("ConversationPage() error: %v", err)
	}

	if gotPath != "/2/tweets/search/recent" {
		t.Errorf("path = %q, want /2/tweets/search/recent", gotPath)
	}
	if gotSearch != "conversation_id:100" {
		t.Errorf("query = %q, want conversation_id:100", gotSearch)
	}
	if gotToken != "tok-9" {
		t.Errorf("pagination_token = %q, want tok-9", gotToken)
	}
	if !page.Empty() {
		t.Error("zero-result page should report Empty()")
	}
}

func TestLookupUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2/users/by/username/alpha" {
			w.Write([]byte(`{"data": {"id": "1", "name": "Alpha", "username": "alpha"}}`))
			return
		}
		w.Write([]byte(`{"errors": [{"title": "Not Found Error"}]}`))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))

	id, err := client.LookupUser(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("LookupUser() error: %v", err)
	}
	if id != "1" {
		t.Errorf("id = %q, want 1", id)
	}

	_, err = client.LookupUser(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupUser(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestFetchPageInBandRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Too Many Requests", "detail": "Too Many Requests", "status": 429}`))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	_, err := client.TimelinePage(context.Background(), "1", testQuery())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream broke"))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	_, err := client.TimelinePage(context.Background(), "1", testQuery())

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedResponseError", err)
	}
	if malformed.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", malformed.StatusCode)
	}
}

func TestFetchPageUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	_, err := client.TimelinePage(context.Background(), "1", testQuery())

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedResponseError", err)
	}
}
