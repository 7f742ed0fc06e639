package pipeline

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

const (
	// maxTextLength is the provider's post length ceiling; anything
	// longer survived stitching and is almost always spam.
	maxTextLength = 280

	// shortTextLength is the cutoff below which a text needs either a
	// descriptor word or a stitched parent to stay.
	shortTextLength = 20

	// maxDuplicates is how many verbatim copies of a text a batch may
	// carry before all copies are dropped.
	maxDuplicates = 2

	// maxMeanWordLength flags residual hashtag and URL debris.
	maxMeanWordLength = 14

	// minUniquenessPercent is the lexical uniqueness floor: rounded
	// percent of distinct words a text must exceed.
	minUniquenessPercent = 53
)

// Anchored greeting and giveaway signatures seen in the crawled data.
var (
	shortGreetingRe = regexp.MustCompile(`(?i)^ ?gm($| |!+|\.)`)
	thankMeLaterRe  = regexp.MustCompile(`(?i)^ ?thank me later($| |!+|\.)`)
)

// solicitationRes drop a text on any substring match.
var solicitationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)milkywaydefi|taxi|shib|santafloki|luffy|check out|play to earn|Bluebit`),
	regexp.MustCompile(`(?i)DM for more premium`),
	regexp.MustCompile(`(?i)Contact me via the link below`),
	regexp.MustCompile(`(?i)I won't be replying everyone on comment section`),
	regexp.MustCompile(`(?i)The new trend 2022`),
	regexp.MustCompile(`(?i)Opportunity for early investors`),
	regexp.MustCompile(`(?i)hit me up on telegram`),
}

// SpamFilter1 drops empty texts, batch-level verbatim duplicates,
// known solicitation signatures and short texts without a descriptor
// word.
func SpamFilter1(batch []*Record) []*Record {
	counts := textCounts(batch, func(r *Record) string { return r.Text })

	out := make([]*Record, 0, len(batch))
	for _, r := range batch {
		t := r.Text
		if t == "" || t == " " {
			continue
		}
		if counts[t] > maxDuplicates {
			continue
		}
		if utf8.RuneCountInString(t) < 30 && shortGreetingRe.MatchString(t) {
			continue
		}
		if thankMeLaterRe.MatchString(t) {
			continue
		}
		if strings.Contains(t, " FREE") {
			continue
		}
		if matchesAny(t, solicitationRes) {
			continue
		}
		if utf8.RuneCountInString(t) <= shortTextLength && !hasDescriptor(t) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SpamFilter2 drops over-length texts, long texts with almost no
// words and texts whose mean word length betrays leftover noise.
func SpamFilter2(batch []*Record) []*Record {
	out := make([]*Record, 0, len(batch))
	for _, r := range batch {
		n := utf8.RuneCountInString(r.Text)
		if n > maxTextLength {
			continue
		}
		words := strings.Fields(r.Text)
		if n > 28 && len(words) <= 3 {
			continue
		}
		if meanWordLength(words) > maxMeanWordLength {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SpamFilter3 re-checks duplicates after the lexical rewrites, also
// matching on the text truncated by its last five characters to catch
// spam with varying suffixes, and enforces the uniqueness floor.
func SpamFilter3(batch []*Record) []*Record {
	verbatim := textCounts(batch, func(r *Record) string { return r.Text })
	truncated := textCounts(batch, func(r *Record) string { return trimLast(r.Text, 5) })

	out := make([]*Record, 0, len(batch))
	for _, r := range batch {
		if verbatim[r.Text] > maxDuplicates {
			continue
		}
		if truncated[trimLast(r.Text, 5)] > maxDuplicates {
			continue
		}
		if uniquenessPercent(r.Text) <= minUniquenessPercent {
			continue
		}
		out = append(out, r)
	}
	return out
}

func textCounts(batch []*Record, key func(*Record) string) map[string]int {
	counts := make(map[string]int, len(batch))
	for _, r := range batch {
		counts[key(r)]++
	}
	return counts
}

func matchesAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// hasDescriptor reports whether part-of-speech tagging finds at least
// one adjective or adverb in the text.
func hasDescriptor(text string) bool {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		return false
	}
	for _, tok := range doc.Tokens() {
		if strings.HasPrefix(tok.Tag, "JJ") || strings.HasPrefix(tok.Tag, "RB") {
			return true
		}
	}
	return false
}

func meanWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	var total int
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	return float64(total) / float64(len(words))
}

// trimLast drops the last n runes, returning "" when the text is not
// longer than n.
func trimLast(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return ""
	}
	return string(runes[:len(runes)-n])
}

// uniquenessPercent is the rounded percent of distinct words.
func uniquenessPercent(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[w] = true
	}
	return int(math.Round(float64(len(unique)) / float64(len(words)) * 100))
}
