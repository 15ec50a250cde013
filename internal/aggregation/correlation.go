package aggregation

import (
	"errors"
	"fmt"
	"math"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

// ErrCorrelationUndefined is returned when a statistic cannot be computed from the data
var ErrCorrelationUndefined = errors.New("correlation not computable")

// Column names used in correlation results
const (
	ColumnMagnitude   = "total_layoffs"
	ColumnMentions    = "mention_count"
	ColumnPolarity    = "avg_polarity"
	ColumnAvgScore    = "avg_score"
	ColumnAvgComments = "avg_comments"
)

type column struct {
	name  string
	value func(models.OrganizationSummary) float64
}

var (
	magnitudeCol = column{ColumnMagnitude, func(r models.OrganizationSummary) float64 { return float64(r.TotalMagnitude) }}
	mentionsCol  = column{ColumnMentions, func(r models.OrganizationSummary) float64 { return float64(r.MentionCount) }}
	polarityCol  = column{ColumnPolarity, func(r models.OrganizationSummary) float64 { return r.AvgPolarity }}
	scoreCol     = column{ColumnAvgScore, func(r models.OrganizationSummary) float64 { return r.AvgScore }}
	commentsCol  = column{ColumnAvgComments, func(r models.OrganizationSummary) float64 { return r.AvgCommentCount }}
)

// correlationPairs are computed in this order; the first two are the headline statistics
var correlationPairs = [][2]column{
	{magnitudeCol, mentionsCol},
	{magnitudeCol, polarityCol},
	{mentionsCol, scoreCol},
	{magnitudeCol, commentsCol},
}

// Correlate computes Pearson coefficients over rows that have both reference and discussion data
func Correlate(rows []models.OrganizationSummary) []models.Correlation {
	overlap := Overlap(rows)
	out := make([]models.Correlation, 0, len(correlationPairs))

	for _, pair := range correlationPairs {
		xs := make([]float64, len(overlap))
		ys := make([]float64, len(overlap))
		for i, r := range overlap {
			xs[i] = pair[0].value(r)
			ys[i] = pair[1].value(r)
		}
		c := Pearson(xs, ys)
		c.X = pair[0].name
		c.Y = pair[1].name
		out = append(out, c)
	}
	return out
}

// Pearson returns the sample correlation coefficient of xs and ys.
// The result is undefined for fewer than two points or zero variance.
func Pearson(xs, ys []float64) models.Correlation {
	n := min(len(xs), len(ys))
	result := models.Correlation{Points: n}

	if n < 2 {
		result.Reason = fmt.Sprintf("need at least 2 paired points, have %d", n)
		return result
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	switch {
	case varX == 0:
		result.Reason = "zero variance in x"
		return result
	case varY == 0:
		result.Reason = "zero variance in y"
		return result
	}

	r := cov / math.Sqrt(varX*varY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		result.Reason = "non-finite result"
		return result
	}

	result.Value = math.Max(-1, math.Min(1, r))
	result.Defined = true
	return result
}

// Coefficient returns the value of a correlation or ErrCorrelationUndefined
func Coefficient(c models.Correlation) (float64, error) {
	if !c.Defined {
		return 0, fmt.Errorf("%s vs %s: %w: %s", c.X, c.Y, ErrCorrelationUndefined, c.Reason)
	}
	return c.Value, nil
}

// Trend is a least-squares line y = Slope*x + Intercept
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Points    int     `json:"points"`
}

// At evaluates the trend line
func (t Trend) At(x float64) float64 {
	return t.Slope*x + t.Intercept
}

// FitTrend fits a first-degree line through the points
func FitTrend(xs, ys []float64) (Trend, error) {
	n := min(len(xs), len(ys))
	if n < 2 {
		return Trend{Points: n}, fmt.Errorf("%w: need at least 2 points, have %d", ErrCorrelationUndefined, n)
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return Trend{Points: n}, fmt.Errorf("%w: zero variance in x", ErrCorrelationUndefined)
	}

	slope := sxy / sxx
	return Trend{Slope: slope, Intercept: meanY - slope*meanX, Points: n}, nil
}

// MentionTrend fits mentions against total magnitude over the overlapping rows
func MentionTrend(rows []models.OrganizationSummary) (Trend, error) {
	overlap := Overlap(rows)
	xs := make([]float64, len(overlap))
	ys := make([]float64, len(overlap))
	for i, r := range overlap {
		xs[i] = float64(r.TotalMagnitude)
		ys[i] = float64(r.MentionCount)
	}
	return FitTrend(xs, ys)
}
