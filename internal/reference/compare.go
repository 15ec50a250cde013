package reference

import (
	"math"
	"sort"
	"strings"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

// MatchTolerance is the largest absolute percentage difference reported as a match
const MatchTolerance = 10.0

// ComparisonStatus classifies one organization in a dataset comparison
type ComparisonStatus string

const (
	StatusMatch           ComparisonStatus = "MATCH"
	StatusOverestimated   ComparisonStatus = "OVERESTIMATED"
	StatusUnderestimated  ComparisonStatus = "UNDERESTIMATED"
	StatusNotInVerified   ComparisonStatus = "NOT IN VERIFIED"
	StatusMissingCompiled ComparisonStatus = "MISSING FROM COMPILED"
)

// Comparison is one organization's verified and compiled totals
type Comparison struct {
	Organization  string           `json:"company"`
	VerifiedCount int              `json:"verified_count"`
	CompiledCount int              `json:"compiled_count"`
	Difference    int              `json:"difference"`
	PercentDiff   float64          `json:"pct_diff"`
	Status        ComparisonStatus `json:"status"`
}

// Compare outer-joins two datasets by organization and classifies each difference.
// Results are ordered by verified count, largest first.
func Compare(verified, compiled []models.ReferenceEvent) []Comparison {
	type sums struct {
		name               string
		verified, compiled int
	}
	byKey := make(map[string]*sums)
	add := func(ev models.ReferenceEvent, isVerified bool) {
		key := strings.ToLower(strings.TrimSpace(ev.Organization))
		s, ok := byKey[key]
		if !ok {
			s = &sums{name: ev.Organization}
			byKey[key] = s
		}
		if isVerified {
			s.verified += ev.Magnitude
		} else {
			s.compiled += ev.Magnitude
		}
	}
	for _, ev := range verified {
		add(ev, true)
	}
	for _, ev := range compiled {
		add(ev, false)
	}

	out := make([]Comparison, 0, len(byKey))
	for _, s := range byKey {
		c := Comparison{
			Organization:  s.name,
			VerifiedCount: s.verified,
			CompiledCount: s.compiled,
			Difference:    s.compiled - s.verified,
		}
		denominator := float64(s.verified)
		if denominator == 0 {
			denominator = 1
		}
		c.PercentDiff = math.Round(float64(c.Difference)/denominator*1000) / 10
		c.Status = classify(c)
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].VerifiedCount != out[j].VerifiedCount {
			return out[i].VerifiedCount > out[j].VerifiedCount
		}
		return out[i].Organization < out[j].Organization
	})
	return out
}

func classify(c Comparison) ComparisonStatus {
	switch {
	case c.VerifiedCount == 0:
		return StatusNotInVerified
	case c.CompiledCount == 0:
		return StatusMissingCompiled
	case math.Abs(c.PercentDiff) <= MatchTolerance:
		return StatusMatch
	case c.PercentDiff > 0:
		return StatusOverestimated
	default:
		return StatusUnderestimated
	}
}

// MatchRate is the share of verified organizations whose compiled total matched
func MatchRate(comparisons []Comparison) (matches, total int) {
	for _, c := range comparisons {
		if c.VerifiedCount == 0 {
			continue
		}
		total++
		if c.Status == StatusMatch {
			matches++
		}
	}
	return matches, total
}
