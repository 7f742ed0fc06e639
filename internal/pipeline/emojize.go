package pipeline

import (
	"strings"

	"github.com/forPelevin/gomoji"
)

// Demojize replaces every emoji glyph with its ":name:" token so the
// lexicon scorers see plain text.
func Demojize(batch []*Record) []*Record {
	for _, r := range batch {
		r.Text = demojize(r.Text)
	}
	return batch
}

func demojize(text string) string {
	for _, e := range gomoji.FindAll(text) {
		token := ":" + strings.ReplaceAll(e.Slug, "-", "_") + ":"
		text = strings.ReplaceAll(text, e.Character, token)
	}
	return text
}
