// Package pipeline normalizes raw post text through a fixed ordered
// chain of batch transforms and scores the survivors.
package pipeline

import "btc-sentiment-lab/internal/domain"

// Record is one post moving through the chain. Text is rewritten in
// place by the stages; the identifiers never change.
type Record struct {
	PostID         string
	ConversationID string
	Text           string
}

// Stage consumes a batch and returns the surviving records. Stages
// that count duplicates or stitch replies are batch-relative: their
// output depends on the batch boundary the caller picked.
type Stage func(batch []*Record) []*Record

func newRecords(posts []*domain.RawPost) []*Record {
	records := make([]*Record, 0, len(posts))
	for _, p := range posts {
		records = append(records, &Record{
			PostID:         p.PostID,
			ConversationID: p.ConversationID,
			Text:           p.Text,
		})
	}
	return records
}
