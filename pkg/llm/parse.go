package llm

import (
	"encoding/json"
	"strings"
)

const (
	maxSnippetSuggestions = 10
	defaultSuggestion     = "Consider reviewing the code analysis above for improvements."
)

var suggestionKeywords = []string{"suggestion", "recommendation", "improve"}

// parseSnippetResponse splits free text into the review body and a suggestion list.
// The first line mentioning suggestions starts the list and is itself dropped.
func parseSnippetResponse(text string) *SnippetReview {
	var reviewParts, suggestions []string
	inSuggestions := false

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if containsAny(strings.ToLower(line), suggestionKeywords) {
			inSuggestions = true
			continue
		}

		if !inSuggestions {
			reviewParts = append(reviewParts, line)
			continue
		}

		if isBullet(line) {
			suggestions = append(suggestions, strings.TrimLeft(line, `-*"0123456789. )`))
		} else {
			suggestions = append(suggestions, line)
		}
	}

	review := text
	if len(reviewParts) > 0 {
		review = strings.Join(reviewParts, "\n")
	}
	if len(suggestions) == 0 {
		suggestions = []string{defaultSuggestion}
	}
	if len(suggestions) > maxSnippetSuggestions {
		suggestions = suggestions[:maxSnippetSuggestions]
	}

	return &SnippetReview{Review: review, Suggestions: suggestions}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// isBullet matches "-", "*", a quote, or a single-digit "1." / "1)" marker
func isBullet(line string) bool {
	switch line[0] {
	case '-', '*', '"':
		return true
	}
	if line[0] >= '0' && line[0] <= '9' && len(line) >= 3 {
		marker := line[1:3]
		return marker == ". " || marker == ") "
	}
	return false
}

// extractJSON returns the text between the first "{" and the last "}"
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeJSON fills dest from the JSON object embedded in text.
// The returned string is empty on success and describes the failure otherwise.
func decodeJSON(text string, dest any) string {
	raw, ok := extractJSON(text)
	if !ok {
		return "Could not parse response"
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return err.Error()
	}
	return ""
}

func parseFileReview(text string) *FileReview {
	review := &FileReview{}
	if msg := decodeJSON(text, review); msg != "" {
		return &FileReview{Error: msg, RawResponse: text}
	}
	if review.Issues == nil {
		review.Issues = []FileIssue{}
	}
	return review
}

func parseMigrationPlan(text string) *MigrationPlan {
	plan := &MigrationPlan{}
	if msg := decodeJSON(text, plan); msg != "" {
		return &MigrationPlan{Error: msg, RawResponse: text}
	}
	return plan
}

func parsePatterns(text string) []Pattern {
	var envelope struct {
		Patterns []Pattern `json:"patterns"`
	}
	if msg := decodeJSON(text, &envelope); msg != "" {
		return []Pattern{}
	}
	if envelope.Patterns == nil {
		return []Pattern{}
	}
	return envelope.Patterns
}
