package review

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// CommentableLines returns the new-file line numbers that appear in a unified
// diff patch. GitHub only accepts line comments on these lines.
func CommentableLines(patch string) map[int]bool {
	lines := make(map[int]bool)
	next := 0
	inHunk := false

	for _, line := range strings.Split(patch, "\n") {
		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			next, _ = strconv.Atoi(m[1])
			inHunk = true
			continue
		}
		if !inHunk || line == "" {
			continue
		}

		switch line[0] {
		case '+', ' ':
			lines[next] = true
			next++
		case '-', '\\':
		default:
			inHunk = false
		}
	}
	return lines
}
