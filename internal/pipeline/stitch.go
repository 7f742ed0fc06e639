package pipeline

import "unicode/utf8"

// StitchReplies gives short replies their conversation context: the
// parent post's text is prepended with a period-space separator. A
// short text is dropped when its parent is missing from the batch,
// when it repeats the parent verbatim (including a short root post,
// whose parent is itself), or when the stitched result is still short.
func StitchReplies(batch []*Record) []*Record {
	byID := make(map[string]*Record, len(batch))
	for _, r := range batch {
		byID[r.PostID] = r
	}

	out := make([]*Record, 0, len(batch))
	for _, r := range batch {
		if utf8.RuneCountInString(r.Text) > shortTextLength {
			out = append(out, r)
			continue
		}
		parent, ok := byID[r.ConversationID]
		if !ok || parent.Text == r.Text {
			continue
		}
		stitched := parent.Text + ". " + r.Text
		if utf8.RuneCountInString(stitched) < shortTextLength {
			continue
		}
		r.Text = stitched
		out = append(out, r)
	}
	return out
}
