package domain

import "time"

// RawPost represents a post exactly as fetched from the provider.
// Corresponds to the raw_posts table. Engagement counters may be refreshed
// on re-sighting; everything else is immutable after first insert.
type RawPost struct {
	PostID         string    // provider post identifier, unique
	CreatedAt      time.Time
	ConversationID string // shared by a root post and all of its replies
	AuthorID       string // FK to authors.account_id, must pre-exist
	Text           string
	RetweetCount   int
	ReplyCount     int
	LikeCount      int
	QuoteCount     int
}

// IsReply reports whether the post belongs to another post's conversation.
func (p *RawPost) IsReply() bool {
	return p.ConversationID != "" && p.ConversationID != p.PostID
}

// CleanedPost is the scored output of the normalization pipeline,
// derived 1:0..1 from a RawPost. Append-only, never mutated.
type CleanedPost struct {
	PostID         string
	NormalizedText string
	VaderCompound  float64 // lexicon-based compound valence in [-1, 1]
	Polarity       float64 // pattern-lexicon polarity in [-1, 1]
	Subjectivity   float64 // pattern-lexicon subjectivity in [0, 1]
}

// ScoredPost pairs a CleanedPost with the raw fields the aggregation
// engine needs (created_at, author, conversation) without re-reading
// the raw table row by row.
type ScoredPost struct {
	PostID         string
	CreatedAt      time.Time
	AuthorID       string
	ConversationID string
	VaderCompound  float64
	Polarity       float64
	Subjectivity   float64
}
