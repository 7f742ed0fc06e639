package sentiment

import "strings"

// lexiconEntry carries the averaged sense scores for one word.
type lexiconEntry struct {
	polarity     float64
	subjectivity float64
	// intensity above 1 marks an intensifier, below 1 a hedge. It
	// multiplies the polarity of the word that follows.
	intensity float64
}

// negations flip and dampen the polarity of the following lexicon hit.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true,
	"nor": true, "cannot": true, "n't": true, "dont": true,
	"don't": true, "won't": true, "wont": true, "isn't": true,
	"isnt": true, "wasn't": true, "wasnt": true, "aren't": true,
	"arent": true,
}

// patternLexicon is a compact adjective and adverb lexicon. Scores
// follow the usual averaged-sense convention: polarity in [-1, 1],
// subjectivity in [0, 1], intensity around 1.
var patternLexicon = map[string]lexiconEntry{
	// positive
	"good":       {0.7, 0.6, 1.0},
	"great":      {0.8, 0.75, 1.0},
	"excellent":  {1.0, 1.0, 1.0},
	"amazing":    {0.6, 0.9, 1.0},
	"awesome":    {1.0, 1.0, 1.0},
	"best":       {1.0, 0.3, 1.0},
	"better":     {0.5, 0.5, 1.0},
	"strong":     {0.4, 0.5, 1.0},
	"bullish":    {0.6, 0.8, 1.0},
	"happy":      {0.8, 1.0, 1.0},
	"nice":       {0.6, 1.0, 1.0},
	"love":       {0.5, 0.6, 1.0},
	"win":        {0.8, 0.4, 1.0},
	"winning":    {0.8, 0.4, 1.0},
	"profitable": {0.6, 0.5, 1.0},
	"safe":       {0.5, 0.5, 1.0},
	"easy":       {0.4, 0.8, 1.0},
	"free":       {0.4, 0.8, 1.0},
	"new":        {0.1, 0.4, 1.0},
	"big":        {0.1, 0.35, 1.0},
	"huge":       {0.4, 0.6, 1.0},
	"massive":    {0.3, 0.6, 1.0},
	"high":       {0.2, 0.3, 1.0},
	"up":         {0.1, 0.1, 1.0},
	"rich":       {0.4, 0.5, 1.0},
	"moon":       {0.5, 0.8, 1.0},
	"mooning":    {0.5, 0.8, 1.0},
	"pump":       {0.3, 0.6, 1.0},
	"pumping":    {0.3, 0.6, 1.0},
	"gain":       {0.4, 0.4, 1.0},
	"gains":      {0.4, 0.4, 1.0},
	"rally":      {0.4, 0.5, 1.0},
	"surge":      {0.3, 0.5, 1.0},
	"solid":      {0.3, 0.4, 1.0},
	"legit":      {0.4, 0.6, 1.0},
	"real":       {0.2, 0.3, 1.0},
	"right":      {0.3, 0.5, 1.0},
	"sure":       {0.5, 0.9, 1.0},
	"stable":     {0.3, 0.4, 1.0},

	// negative
	"bad":         {-0.7, 0.67, 1.0},
	"terrible":    {-1.0, 1.0, 1.0},
	"horrible":    {-1.0, 1.0, 1.0},
	"awful":       {-1.0, 1.0, 1.0},
	"worst":       {-1.0, 0.3, 1.0},
	"worse":       {-0.5, 0.5, 1.0},
	"weak":        {-0.4, 0.5, 1.0},
	"bearish":     {-0.6, 0.8, 1.0},
	"sad":         {-0.5, 1.0, 1.0},
	"scam":        {-0.8, 0.9, 1.0},
	"fraud":       {-0.8, 0.9, 1.0},
	"fake":        {-0.5, 0.7, 1.0},
	"lose":        {-0.6, 0.4, 1.0},
	"losing":      {-0.6, 0.4, 1.0},
	"loss":        {-0.5, 0.4, 1.0},
	"losses":      {-0.5, 0.4, 1.0},
	"crash":       {-0.6, 0.7, 1.0},
	"crashing":    {-0.6, 0.7, 1.0},
	"dump":        {-0.4, 0.6, 1.0},
	"dumping":     {-0.4, 0.6, 1.0},
	"down":        {-0.2, 0.2, 1.0},
	"low":         {-0.2, 0.3, 1.0},
	"risky":       {-0.4, 0.7, 1.0},
	"dangerous":   {-0.5, 0.7, 1.0},
	"dead":        {-0.4, 0.5, 1.0},
	"wrong":       {-0.5, 0.5, 1.0},
	"stupid":      {-0.8, 0.9, 1.0},
	"dumb":        {-0.7, 0.9, 1.0},
	"worthless":   {-0.8, 0.8, 1.0},
	"volatile":    {-0.2, 0.6, 1.0},
	"fear":        {-0.6, 0.7, 1.0},
	"panic":       {-0.6, 0.8, 1.0},
	"bubble":      {-0.3, 0.6, 1.0},
	"overvalued":  {-0.4, 0.7, 1.0},
	"undervalued": {0.3, 0.7, 1.0},

	// intensifiers and hedges
	"very":       {0.2, 0.3, 1.3},
	"really":     {0.2, 0.4, 1.3},
	"extremely":  {0.3, 0.8, 1.5},
	"absolutely": {0.2, 0.9, 1.4},
	"totally":    {0.2, 0.7, 1.3},
	"so":         {0.1, 0.2, 1.2},
	"incredibly": {0.3, 0.9, 1.4},
	"super":      {0.3, 0.6, 1.3},
	"quite":      {0.0, 0.5, 1.1},
	"pretty":     {0.25, 0.9, 1.1},
	"somewhat":   {0.0, 0.4, 0.8},
	"slightly":   {0.0, 0.4, 0.7},
	"barely":     {0.0, 0.5, 0.6},
	"hardly":     {-0.1, 0.5, 0.6},
}

// patternAssess averages lexicon hits over the text. An intensifier
// multiplies the polarity of the next hit, a negation within the two
// preceding tokens flips and halves it.
func patternAssess(text string) (polarity, subjectivity float64) {
	tokens := patternTokens(text)
	if len(tokens) == 0 {
		return 0, 0
	}

	var polSum, subSum float64
	var hits int
	modifier := 1.0

	for i, tok := range tokens {
		entry, ok := patternLexicon[tok]
		if !ok {
			modifier = 1.0
			continue
		}
		if entry.intensity != 1.0 {
			// Intensifiers only shape the next hit, they are not
			// assessments of their own.
			modifier *= entry.intensity
			continue
		}

		p := clamp(entry.polarity*modifier, -1, 1)
		s := clamp(entry.subjectivity*maxf(modifier, 1), 0, 1)
		modifier = 1.0

		if negatedBefore(tokens, i) {
			p *= -0.5
		}

		polSum += p
		subSum += s
		hits++
	}

	if hits == 0 {
		return 0, 0
	}
	return polSum / float64(hits), subSum / float64(hits)
}

// negatedBefore reports whether one of the two tokens preceding i is
// a negation.
func negatedBefore(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if negations[tokens[j]] {
			return true
		}
	}
	return false
}

func patternTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			return false
		}
		return true
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
