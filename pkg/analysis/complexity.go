package analysis

import (
	"regexp"
	"strings"
)

const (
	MinComplexity = 1
	MaxComplexity = 10
)

var controlFlowKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bif\b`),
	regexp.MustCompile(`(?i)\belse\b`),
	regexp.MustCompile(`(?i)\belif\b`),
	regexp.MustCompile(`(?i)\bfor\b`),
	regexp.MustCompile(`(?i)\bwhile\b`),
	regexp.MustCompile(`(?i)\bswitch\b`),
	regexp.MustCompile(`(?i)\bcase\b`),
	regexp.MustCompile(`(?i)\bcatch\b`),
}

var controlFlowOperators = []string{"&&", "||"}

// EstimateComplexity maps the number of control flow tokens in text onto [1, 10].
// The token list is the same for every language.
func EstimateComplexity(text string) int {
	raw := 1
	for _, re := range controlFlowKeywords {
		raw += len(re.FindAllStringIndex(text, -1))
	}
	for _, op := range controlFlowOperators {
		raw += strings.Count(text, op)
	}
	return clamp(raw/5+1, MinComplexity, MaxComplexity)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
