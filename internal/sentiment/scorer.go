// Package sentiment scores normalized post text on three lexicon-based
// axes: compound valence, polarity and subjectivity.
package sentiment

import (
	"github.com/jonreiter/govader"
)

// Scores holds the three sentiment axes for one text.
type Scores struct {
	Compound     float64 // valence-aware compound in [-1, 1]
	Polarity     float64 // pattern-lexicon polarity in [-1, 1]
	Subjectivity float64 // pattern-lexicon subjectivity in [0, 1]
}

// Scorer scores texts. Safe for sequential use only: the underlying
// analyzer keeps no per-call state but is not documented as
// goroutine-safe.
type Scorer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewScorer creates a Scorer with the default lexicons.
func NewScorer() *Scorer {
	return &Scorer{
		vader: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Score computes all three axes for one text. Empty or fully
// out-of-lexicon text scores zero on every axis.
func (s *Scorer) Score(text string) Scores {
	scores := Scores{}
	if text == "" {
		return scores
	}
	scores.Compound = s.vader.PolarityScores(text).Compound
	scores.Polarity, scores.Subjectivity = patternAssess(text)
	return scores
}
