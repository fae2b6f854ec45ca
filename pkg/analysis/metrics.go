package analysis

import (
	"strings"
	"unicode/utf8"
)

var commentMarkers = []string{"#", "//", "/*"}

// splitLines splits on "\n". The empty string yields a single empty line.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// lineLength counts characters, not bytes
func lineLength(line string) int {
	return utf8.RuneCountInString(line)
}

func isComment(trimmed string) bool {
	for _, marker := range commentMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// CollectMetrics derives line statistics from text.
// CodeLines+CommentLines+BlankLines always equals TotalLines.
func CollectMetrics(text string) Metrics {
	return collectLines(splitLines(text))
}

func collectLines(lines []string) Metrics {
	var m Metrics
	m.TotalLines = len(lines)
	if m.TotalLines == 0 {
		return m
	}

	sum := 0
	for _, line := range lines {
		n := lineLength(line)
		sum += n
		if n > m.MaxLineLength {
			m.MaxLineLength = n
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			m.BlankLines++
		case isComment(trimmed):
			m.CommentLines++
		default:
			m.CodeLines++
		}
	}
	m.AvgLineLength = sum / m.TotalLines

	return m
}
