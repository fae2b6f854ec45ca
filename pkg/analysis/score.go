package analysis

const (
	MaxQualityScore = 100

	complexityThreshold   = 7
	complexityPenaltyStep = 5
	longLinePenalty       = 10
	commentBonus          = 10
)

// Score computes the quality score in [0, 100].
//
// Each issue costs its severity penalty, complexity above 7 costs 5 points per step,
// a line longer than MaxLineLength costs 10, and a comment ratio between 10% and 30%
// (inclusive) earns 10 back.
func Score(m Metrics, issues []Issue, complexity int) int {
	score := MaxQualityScore

	for _, issue := range issues {
		score -= issue.Severity.Penalty()
	}

	if complexity > complexityThreshold {
		score -= (complexity - complexityThreshold) * complexityPenaltyStep
	}

	if m.MaxLineLength > MaxLineLength {
		score -= longLinePenalty
	}

	if m.TotalLines > 0 && commentRatioInBand(m.CommentLines, m.TotalLines) {
		score += commentBonus
	}

	return clamp(score, 0, MaxQualityScore)
}

// commentRatioInBand checks 0.10 <= comments/total <= 0.30 without floating point.
func commentRatioInBand(comments, total int) bool {
	return comments*10 >= total && comments*10 <= total*3
}
