package pipeline

import (
	"regexp"
	"sort"
	"strings"
)

// rewrite maps one compiled signature to its replacement text.
type rewrite struct {
	re    *regexp.Regexp
	gloss string
}

// NormalizeLexicon rewrites each text into plain scorer-friendly
// language: country variants, contractions, domain slang, then
// currency and ticker names, in that order.
func NormalizeLexicon(batch []*Record) []*Record {
	for _, r := range batch {
		t := r.Text
		t = cleanCountry(t)
		t = expandContractions(t)
		t = cleanSlang(t)
		t = cleanMoney(t)
		t = leadingDotRe.ReplaceAllString(t, "")
		t = multiSpaceRe.ReplaceAllString(t, " ")
		r.Text = strings.TrimSpace(t)
	}
	return batch
}

var (
	leadingDotRe = regexp.MustCompile(`^\. `)
	orphanDotRe  = regexp.MustCompile(` \. `)
	digitSpaceRe = regexp.MustCompile(`(\d) (\d)`)
	digitCommaRe = regexp.MustCompile(`(\d),(\d)`)
)

var countryRewrites = []rewrite{
	{regexp.MustCompile(`(^| )US($| )`), " USA "},
	{regexp.MustCompile(`(^| )U\.S\.A($| )`), " USA "},
	{regexp.MustCompile(`(?i)(^| )U\.S\.($| )`), " USA "},
	{regexp.MustCompile(`(?i)(^| )U\.S($| )`), " USA "},
}

func cleanCountry(text string) string {
	for _, rw := range countryRewrites {
		text = rw.re.ReplaceAllString(text, rw.gloss)
	}
	text = leadingDotRe.ReplaceAllString(text, "")
	return orphanDotRe.ReplaceAllString(text, ". ")
}

// contractionGlosses expands the common English contractions. The
// replacement loses the original casing; the scorers do not care.
var contractionGlosses = map[string]string{
	"ain't": "are not", "aren't": "are not", "can't": "cannot",
	"couldn't": "could not", "didn't": "did not", "doesn't": "does not",
	"don't": "do not", "hadn't": "had not", "hasn't": "has not",
	"haven't": "have not", "he'd": "he would", "he'll": "he will",
	"here's": "here is", "i'd": "i would", "i'll": "i will",
	"i'm": "i am", "i've": "i have", "isn't": "is not",
	"it'd": "it would", "it'll": "it will", "it's": "it is",
	"let's": "let us", "shouldn't": "should not", "that's": "that is",
	"there's": "there is", "they'd": "they would", "they'll": "they will",
	"they're": "they are", "they've": "they have", "wasn't": "was not",
	"we'd": "we would", "we'll": "we will", "we're": "we are",
	"we've": "we have", "weren't": "were not", "what's": "what is",
	"who's": "who is", "won't": "will not", "wouldn't": "would not",
	"you'd": "you would", "you'll": "you will", "you're": "you are",
	"you've": "you have",
}

var contractionRewrites = buildContractionRewrites()

func buildContractionRewrites() []rewrite {
	keys := make([]string, 0, len(contractionGlosses))
	for k := range contractionGlosses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rewrites := make([]rewrite, 0, len(keys)+6)
	for _, k := range keys {
		rewrites = append(rewrites, rewrite{
			re:    regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`),
			gloss: contractionGlosses[k],
		})
	}
	// Mis-tokenized contractions the provider's text sometimes carries.
	rewrites = append(rewrites,
		rewrite{regexp.MustCompile(`(?i) he s `), " he's "},
		rewrite{regexp.MustCompile(`(?i) she s `), " she's "},
		rewrite{regexp.MustCompile(`(?i) couldn t `), " couldn't "},
		rewrite{regexp.MustCompile(`(?i) ll `), " will "},
		rewrite{regexp.MustCompile(`(?i) re `), " are "},
		rewrite{regexp.MustCompile(`(?i) m `), " am "},
	)
	return rewrites
}

func expandContractions(text string) string {
	for _, rw := range contractionRewrites {
		text = rw.re.ReplaceAllString(text, rw.gloss)
	}
	return text
}

// slangRewrites glosses crypto jargon and chat shorthand into plain
// language the sentiment lexicons can score.
var slangRewrites = []rewrite{
	{regexp.MustCompile(`(?i)(^| )WAGMI($| )`), " we are going to make it "},
	{regexp.MustCompile(`(?i)(^| )NGMI($| )`), " never going to make it "},
	{regexp.MustCompile(`(?i)(^| )FOMO($| )`), " fear of missing out "},
	{regexp.MustCompile(`(?i)(^| )Rekt($| |!+|\.|t+)`), " wrecked "},
	{regexp.MustCompile(`(?i)(^| )FUD($| |!+|\.)`), " fear, uncertainty, doubt "},
	{regexp.MustCompile(`(?i)(^| )HODL($| |!+|\.|ing|er)`), " I am losing money, hold on for dear life "},
	{regexp.MustCompile(`(?i)(^| )bearish($| |!+|\.)`), " negative movement "},
	{regexp.MustCompile(`(?i)(^| )bear($| |!+|\.)`), " negative movement "},
	{regexp.MustCompile(`(?i)(^| )bullish($| |!+|\.)`), " positive movement "},
	{regexp.MustCompile(`(?i)(^| )bullrun($| |!+|\.)`), " positive movement "},
	{regexp.MustCompile(`(?i)(^| )bull($| |!+|\.)`), " positive movement "},
	{regexp.MustCompile(`(?i)(^| )shitcoins($| |!+|\.)`), " bad investments "},
	{regexp.MustCompile(`(?i)(^| )shitcoin($| |!+|\.)`), " bad investment "},
	{regexp.MustCompile(`(?i)(^| )LFG($| |!+|\.)`), " lets go, good investment "},
	{regexp.MustCompile(`(?i)(^| )Bluechip($| )`), " high value "},
	{regexp.MustCompile(`(?i)(^| )Rugged($| |!+|\.)`), " scammed "},
	{regexp.MustCompile(`(?i)(^| )Rug Pull($| |!+|\.)`), " fake projects "},
	{regexp.MustCompile(`(?i)(^| )GG($| |!+|\.)`), " smart investment "},
	{regexp.MustCompile(`(?i)(^| )u($| )`), " you "},
	{regexp.MustCompile(` n `), " and "},
	{regexp.MustCompile(` w `), " with "},
	{regexp.MustCompile(`(?i)(^| )smh($| |!+|h+)`), " shaking my head "},
	{regexp.MustCompile(`(?i)(^| )tbh( |h+)`), " to be honest "},
	{regexp.MustCompile(`(?i)(^| )imo($| )`), " in my opinion "},
	{regexp.MustCompile(`(?i)(^| )imho($| )`), " in my honest opinion "},
	{regexp.MustCompile(`(?i)(^| )Lambo($| |!+)`), " get rich by trading crypto "},
	{regexp.MustCompile(`(?i)(^| )DYOR($| )`), " do your own research "},
	{regexp.MustCompile(`(?i)(^| )WL($| )`), " whitelist "},
	{regexp.MustCompile(`(?i)(^| )Frens($| |s+)`), " cryptocurrency friends "},
	{regexp.MustCompile(`(?i)(^| )Anon($| )`), " cryptocurrency anonymous friends "},
	{regexp.MustCompile(`(?i)(^| )Whale($| |s+)`), " big companies "},
	{regexp.MustCompile(`(?i)(^| )DCA($| )`), " dollar-cost averaging "},
	{regexp.MustCompile(`(?i)(^| )Paper Hands($| )`), " short term holders "},
	{regexp.MustCompile(`(?i)(^| )Diamond Hands($| )`), " long term holders "},
	{regexp.MustCompile(`(?i)(^| )DeFi($| )`), " Decentralized Finance "},
	{regexp.MustCompile(`(?i)(^| )Working at McDonald's($| |!+|\.)`), " I am broke "},
	{regexp.MustCompile(`(?i)(^| )Can Devs do something($| |!+|\.)`), " bad investment "},
}

func cleanSlang(text string) string {
	for _, rw := range slangRewrites {
		text = rw.re.ReplaceAllString(text, rw.gloss)
	}
	return text
}

var moneyRewrites = []rewrite{
	{regexp.MustCompile(`\$`), " dollar "},
	{regexp.MustCompile("€"), " euro "},
	{regexp.MustCompile(`(^| )bitcoin($| )`), " Bitcoin "},
	{regexp.MustCompile(`(?i)(^| )BTC($| )`), " Bitcoin "},
	{regexp.MustCompile(`(?i)(^| )crypto currency($| )`), " cryptocurrency "},
	{regexp.MustCompile(`(?i)(^| )crypto currencies($| |\.)`), " cryptocurrency "},
	{regexp.MustCompile(`(?i)(^| )crypto($| )`), " cryptocurrency "},
	{regexp.MustCompile(`(?i)(^| )eth($| )`), " Ethereum "},
	{regexp.MustCompile(`(^| )ethereum($| )`), " Ethereum "},
}

func cleanMoney(text string) string {
	// "#BTC #Bitcoin" collapses to a doubled name after stripping.
	text = strings.ReplaceAll(text, "Bitcoin Bitcoin", " Bitcoin ")
	text = leadingDotRe.ReplaceAllString(text, "")
	text = joinDigits(text)
	for _, rw := range moneyRewrites {
		text = rw.re.ReplaceAllString(text, rw.gloss)
	}
	return text
}

// joinDigits fuses digit groups split by a space or thousands comma
// ("40 000", "40,000" -> "40000"). Applied until stable because each
// pass only fuses non-overlapping pairs.
func joinDigits(text string) string {
	for {
		next := digitSpaceRe.ReplaceAllString(text, "$1$2")
		next = digitCommaRe.ReplaceAllString(next, "$1$2")
		if next == text {
			return next
		}
		text = next
	}
}
