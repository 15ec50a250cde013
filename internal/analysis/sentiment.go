package analysis

import (
	"strings"

	"github.com/jonreiter/govader"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

// Label thresholds; both boundaries are neutral
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// LabelFor buckets a polarity score
func LabelFor(polarity float64) models.SentimentLabel {
	switch {
	case polarity > PositiveThreshold:
		return models.SentimentPositive
	case polarity < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Scorer produces polarity in [-1, 1] and subjectivity in [0, 1] for a text
type Scorer interface {
	Score(text string) (polarity, subjectivity float64)
}

// VaderScorer scores text with the VADER lexicon.
// Polarity is the compound score; subjectivity is the share of non-neutral tokens.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the lexicon
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Score(text string) (float64, float64) {
	s := v.analyzer.PolarityScores(text)
	return clamp(s.Compound, -1, 1), clamp(s.Positive+s.Negative, 0, 1)
}

// Classifier turns text into a labelled sentiment. It keeps no history.
type Classifier struct {
	scorer Scorer
}

// NewClassifier creates a classifier backed by the VADER lexicon
func NewClassifier() *Classifier {
	return NewClassifierWithScorer(NewVaderScorer())
}

// NewClassifierWithScorer creates a classifier with a custom scorer
func NewClassifierWithScorer(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// Classify scores and labels text. Empty text is neutral with zero scores.
func (c *Classifier) Classify(text string) models.Sentiment {
	if strings.TrimSpace(text) == "" {
		return models.Sentiment{Label: models.SentimentNeutral}
	}

	polarity, subjectivity := c.scorer.Score(text)
	return models.Sentiment{
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Label:        LabelFor(polarity),
	}
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
