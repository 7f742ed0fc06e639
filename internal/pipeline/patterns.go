package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/forPelevin/gomoji"
)

// boilerplatePrefixes are news-style markers stripped verbatim. "RT "
// vanishes, everything else leaves a separating space behind.
var boilerplatePrefixes = []struct {
	old string
	new string
}{
	{"RT ", ""},
	{"JUST IN ", " "},
	{"JUST IN: ", " "},
	{"BREAKING: ", " "},
	{"BREAKING ", " "},
	{"NEW: ", " "},
	{"NEW ", " "},
	{"ICYMI: ", " "},
	{"ICYMI ", " "},
	{"TOMORROW: ", " "},
	{"TOMORROW ", " "},
	{"COMING UP: ", " "},
	{"COMING UP ", " "},
	{"LIVE: ", " "},
	{"LIVE ", " "},
	{"#", " "},
	{"’", "'"}, // curly apostrophe to ASCII
}

var (
	urlRe        = regexp.MustCompile(`http\S+`)
	mentionRe    = regexp.MustCompile(`@\S+`)
	htmlEntityRe = regexp.MustCompile(`&[A-Za-z\d#]+;`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// StripPatterns removes boilerplate prefixes, URLs, mentions, the hash
// symbol, HTML entity references and any rune that is neither
// printable ASCII nor an emoji, then spaces out emoji glyphs and
// collapses whitespace.
func StripPatterns(batch []*Record) []*Record {
	for _, r := range batch {
		r.Text = stripPatterns(r.Text)
	}
	return batch
}

func stripPatterns(text string) string {
	for _, p := range boilerplatePrefixes {
		text = strings.ReplaceAll(text, p.old, p.new)
	}
	text = urlRe.ReplaceAllString(text, " ")
	text = mentionRe.ReplaceAllString(text, " ")
	text = htmlEntityRe.ReplaceAllString(text, " ")

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, s := range emojiSpans(text) {
		if s.start < pos {
			continue
		}
		writeASCII(&b, text[pos:s.start])
		// Separate emoji from surrounding words so each glyph
		// survives as its own token.
		b.WriteByte(' ')
		b.WriteString(text[s.start:s.end])
		b.WriteByte(' ')
		pos = s.end
	}
	writeASCII(&b, text[pos:])

	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(b.String(), " "))
}

type emojiSpan struct {
	start, end int
}

// emojiSpans locates every emoji occurrence in text as a byte range.
// Matching whole sequences keeps multi-rune glyphs (ZWJ families,
// flags, skin tone variants) from being torn apart by the rune filter.
func emojiSpans(text string) []emojiSpan {
	var spans []emojiSpan
	for _, e := range gomoji.FindAll(text) {
		ch := e.Character
		for from := 0; ; {
			idx := strings.Index(text[from:], ch)
			if idx < 0 {
				break
			}
			start := from + idx
			spans = append(spans, emojiSpan{start: start, end: start + len(ch)})
			from = start + len(ch)
		}
	}
	// Longest match wins when a composed sequence and one of its
	// components start at the same offset.
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})
	return spans
}

// writeASCII keeps printable ASCII and turns everything else into a
// single space.
func writeASCII(b *strings.Builder, text string) {
	for _, r := range text {
		if r >= 32 && r < 127 {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
}
