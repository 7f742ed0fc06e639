package pipeline

import (
	"testing"
	"unicode/utf8"

	"btc-sentiment-lab/internal/domain"
)

func rec(id, conversationID, text string) *Record {
	return &Record{PostID: id, ConversationID: conversationID, Text: text}
}

func texts(batch []*Record) []string {
	out := make([]string, 0, len(batch))
	for _, r := range batch {
		out = append(out, r.Text)
	}
	return out
}

func TestStripPatternsBoilerplate(t *testing.T) {
	batch := []*Record{rec("1", "1", "RT @acct: BTC mooning!! http://t.co/x #bitcoin")}
	out := StripPatterns(batch)
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if got, want := out[0].Text, "BTC mooning!! bitcoin"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestStripPatternsEntitiesAndWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BREAKING: markets &amp; miners\nrally", "markets miners rally"},
		{"price’s going up", "price's going up"},
		{"ICYMI new\t\thigh   today", "new high today"},
	}
	for _, tc := range cases {
		if got := stripPatterns(tc.in); got != tc.want {
			t.Errorf("stripPatterns(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripPatternsKeepsEmojiSequencesIntact(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"btc up🚀again", "btc up 🚀 again"},
		// ZWJ family sequence stays a single glyph.
		{"hodl 👨‍👩‍👧 together", "hodl 👨‍👩‍👧 together"},
		// Flags are two regional indicator runes.
		{"mining moves to 🇺🇸 now", "mining moves to 🇺🇸 now"},
		{"strong 💪🏽 hands", "strong 💪🏽 hands"},
	}
	for _, tc := range cases {
		if got := stripPatterns(tc.in); got != tc.want {
			t.Errorf("stripPatterns(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSpamFilter1DropsDuplicates(t *testing.T) {
	batch := []*Record{
		rec("1", "1", "gm"),
		rec("2", "2", "gm"),
		rec("3", "3", "gm"),
		rec("4", "4", "a genuinely interesting market observation"),
	}
	out := SpamFilter1(batch)
	if len(out) != 1 || out[0].PostID != "4" {
		t.Fatalf("survivors = %v, want only post 4", texts(out))
	}
}

func TestSpamFilter1DropsSolicitation(t *testing.T) {
	batch := []*Record{
		rec("1", "1", "DM for more premium signals and profits every day"),
		rec("2", "2", "hit me up on telegram for the next gem launch"),
		rec("3", "3", "grab your FREE tokens right now before launch"),
		rec("4", "4", "the hashrate keeps setting impressive new records"),
	}
	out := SpamFilter1(batch)
	if len(out) != 1 || out[0].PostID != "4" {
		t.Fatalf("survivors = %v, want only post 4", texts(out))
	}
}

func TestSpamFilter1KeepsShortDescriptorText(t *testing.T) {
	batch := []*Record{
		rec("1", "1", "incredibly bullish"), // adverb + adjective
	}
	out := SpamFilter1(batch)
	if len(out) != 1 {
		t.Fatalf("short descriptor text dropped: %v", texts(out))
	}
}

func TestStitchReplies(t *testing.T) {
	batch := []*Record{
		rec("100", "100", "Bitcoin is crashing"),
		rec("101", "100", "no way"),
		rec("102", "999", "orphaned"), // parent not in batch
		rec("103", "100", "Bitcoin is crashing"), // verbatim echo of parent
		rec("104", "104", "a long enough standalone post about markets"),
	}
	out := StitchReplies(batch)

	got := map[string]string{}
	for _, r := range out {
		got[r.PostID] = r.Text
	}
	if text, ok := got["101"]; !ok || text != "Bitcoin is crashing. no way" {
		t.Errorf("stitched reply = %q, want %q", text, "Bitcoin is crashing. no way")
	}
	if _, ok := got["102"]; ok {
		t.Error("orphaned reply survived")
	}
	if _, ok := got["103"]; ok {
		t.Error("verbatim echo survived")
	}
	if _, ok := got["100"]; ok {
		t.Error("short root post survived its own stitch pass")
	}
	if _, ok := got["104"]; !ok {
		t.Error("long post dropped")
	}
}

func TestDemojize(t *testing.T) {
	batch := []*Record{rec("1", "1", "to the moon \U0001F680")}
	out := Demojize(batch)
	if got, want := out[0].Text, "to the moon :rocket:"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestSpamFilter2(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
		if i%8 == 0 {
			long[i] = ' '
		}
	}
	batch := []*Record{
		rec("1", "1", string(long)),                              // > 280 chars
		rec("2", "2", "supercalifragilisticexpialidocious12 yes"), // > 28 chars, <= 3 words
		rec("3", "3", "eeeeeeeeeeeeeeeeeeee ffffffffffffffffffff gggggggggggggggggggg hhhhhhhhhhhhhhhhhhhh"),
		rec("4", "4", "a perfectly ordinary sentence about bitcoin prices"),
	}
	out := SpamFilter2(batch)
	if len(out) != 1 || out[0].PostID != "4" {
		t.Fatalf("survivors = %v, want only post 4", texts(out))
	}
}

func TestSpamFilter2MeanWordLength(t *testing.T) {
	// Four words so the word-count rule cannot be the one that fires.
	batch := []*Record{rec("1", "1", "aaaaaaaaaaaaaaaaaaaa bbbbbbbbbbbbbbbbbbbb cccccccccccccccccccc dddddddddddddddddddd")}
	if out := SpamFilter2(batch); len(out) != 0 {
		t.Fatalf("noise text survived: %v", texts(out))
	}
}

func TestNormalizeLexiconSlang(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"WAGMI", "we are going to make it"},
		{"this is pure FUD!", "this is pure fear, uncertainty, doubt"},
		{"btc to 100 000", "Bitcoin to 100000"},
		{"$40,000 support held", "dollar 40000 support held"},
		{"the US economy and crypto markets", "the USA economy and cryptocurrency markets"},
		{"I can't believe it's real", "I cannot believe it is real"},
		{"eth flipping bitcoin", "Ethereum flipping Bitcoin"},
	}
	for _, tc := range cases {
		out := NormalizeLexicon([]*Record{rec("1", "1", tc.in)})
		if got := out[0].Text; got != tc.want {
			t.Errorf("NormalizeLexicon(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSpamFilter3Uniqueness(t *testing.T) {
	batch := []*Record{
		rec("1", "1", "buy buy buy buy buy buy buy now"),
		rec("2", "2", "an actual opinion with distinct words throughout"),
	}
	out := SpamFilter3(batch)
	if len(out) != 1 || out[0].PostID != "2" {
		t.Fatalf("survivors = %v, want only post 2", texts(out))
	}
}

func TestSpamFilter3SuffixDuplicates(t *testing.T) {
	batch := []*Record{
		rec("1", "1", "join the presale now friends 00001"),
		rec("2", "2", "join the presale now friends 00002"),
		rec("3", "3", "join the presale now friends 00003"),
		rec("4", "4", "a different take on the market today"),
	}
	out := SpamFilter3(batch)
	if len(out) != 1 || out[0].PostID != "4" {
		t.Fatalf("survivors = %v, want only post 4", texts(out))
	}
}

func rawPost(id, conversationID, text string) *domain.RawPost {
	return &domain.RawPost{PostID: id, ConversationID: conversationID, Text: text}
}

func testBatch() []*domain.RawPost {
	return []*domain.RawPost{
		rawPost("1", "1", "RT @whale: BTC looks incredibly strong today http://t.co/x #bitcoin"),
		rawPost("2", "2", "the US regulators are finally warming up to crypto"),
		rawPost("3", "3", "WAGMI friends, this rally is just getting started"),
		rawPost("4", "4", "gm"),
		rawPost("5", "5", "gm"),
		rawPost("6", "6", "gm"),
		rawPost("7", "7", "hit me up on telegram for premium signals"),
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	p := New()
	first := p.Normalize(testBatch())
	second := p.Normalize(testBatch())
	if len(first) != len(second) {
		t.Fatalf("run sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Errorf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestNormalizeLengthBound(t *testing.T) {
	batch := testBatch()
	long := "spam "
	for utf8.RuneCountInString(long) < 300 {
		long += "and more spam "
	}
	batch = append(batch, rawPost("8", "8", long))

	for _, c := range New().Normalize(batch) {
		if n := utf8.RuneCountInString(c.NormalizedText); n > 280 {
			t.Errorf("post %s: normalized length %d > 280", c.PostID, n)
		}
	}
}

func TestNormalizeDropsSpam(t *testing.T) {
	out := New().Normalize(testBatch())
	ids := map[string]bool{}
	for _, c := range out {
		ids[c.PostID] = true
	}
	for _, dropped := range []string{"4", "5", "6", "7"} {
		if ids[dropped] {
			t.Errorf("post %s should have been dropped", dropped)
		}
	}
	if !ids["1"] || !ids["2"] || !ids["3"] {
		t.Errorf("genuine posts missing from output: %v", ids)
	}
}

func TestNormalizeScoresSurvivors(t *testing.T) {
	out := New().Normalize([]*domain.RawPost{
		rawPost("1", "1", "this rally is great news and a strong positive signal"),
	})
	if len(out) != 1 {
		t.Fatalf("got %d cleaned posts, want 1", len(out))
	}
	c := out[0]
	if c.VaderCompound <= 0 {
		t.Errorf("VaderCompound = %v, want > 0", c.VaderCompound)
	}
	if c.Polarity <= 0 {
		t.Errorf("Polarity = %v, want > 0", c.Polarity)
	}
	if c.Subjectivity <= 0 {
		t.Errorf("Subjectivity = %v, want > 0", c.Subjectivity)
	}
}
