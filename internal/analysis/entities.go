package analysis

import (
	"regexp"
	"strings"
)

// Word characters for boundary purposes: letters, digits and underscore
const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}_])`
	rightBoundary = `(?:$|[^\p{L}\p{N}_])`
)

type orgPattern struct {
	name string
	re   *regexp.Regexp
}

// Extractor finds whole-word, case-insensitive occurrences of organization names.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	patterns []orgPattern
}

// NewExtractor compiles one pattern per organization. Names are matched literally.
func NewExtractor(organizations []string) *Extractor {
	e := &Extractor{patterns: make([]orgPattern, 0, len(organizations))}
	seen := make(map[string]bool)

	for _, name := range organizations {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		e.patterns = append(e.patterns, orgPattern{
			name: name,
			re:   regexp.MustCompile(leftBoundary + regexp.QuoteMeta(lower) + rightBoundary),
		})
	}
	return e
}

// Organizations returns the configured names in order
func (e *Extractor) Organizations() []string {
	names := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		names[i] = p.name
	}
	return names
}

// Match returns the organizations mentioned in text, in configured order.
// Empty text yields no matches.
func (e *Extractor) Match(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var found []string
	for _, p := range e.patterns {
		if p.re.MatchString(lower) {
			found = append(found, p.name)
		}
	}
	return found
}

// Match is a convenience for one-off matching against a name list
func Match(text string, organizations []string) []string {
	return NewExtractor(organizations).Match(text)
}
