package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxLineLength is the longest line accepted without a style issue
const MaxLineLength = 120

// securityRule reports every match of its pattern as a high severity issue.
type securityRule struct {
	pattern *regexp.Regexp
	title   string
	message string
}

var securityRules = newSecurityRules(
	"hardcoded_password", `password\s*=\s*["'].*["']`,
	"hardcoded_secret", `(secret|api_key|token)\s*=\s*["'].*["']`,
	"sql_injection", `(execute|query)\s*\(\s*["'].*\+.*["']`,
	"eval_usage", `eval\s*\(`,
)

func newSecurityRules(pairs ...string) []securityRule {
	// Casers are not safe for concurrent use, so titles are rendered once here.
	caser := cases.Title(language.English)
	rules := make([]securityRule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		words := strings.ReplaceAll(pairs[i], "_", " ")
		rules = append(rules, securityRule{
			pattern: regexp.MustCompile(`(?i)` + pairs[i+1]),
			title:   caser.String(words),
			message: fmt.Sprintf("Potential %s detected", words),
		})
	}
	return rules
}

// languageRule fires at most once per text.
type languageRule struct {
	languages []string
	kind      IssueKind
	severity  Severity
	title     string
	message   string
	// find returns the byte offset of the first offending construct, or -1.
	find func(text string) int
}

func (r languageRule) appliesTo(lang string) bool {
	for _, l := range r.languages {
		if l == lang {
			return true
		}
	}
	return false
}

var (
	bareExceptPattern     = regexp.MustCompile(`except\s*:`)
	mutableDefaultPattern = regexp.MustCompile(`def\s+\w+\([^)]*=\s*(\[\]|\{\})`)
	varPattern            = regexp.MustCompile(`\bvar\s+\w+`)
)

func firstMatch(re *regexp.Regexp) func(string) int {
	return func(text string) int {
		loc := re.FindStringIndex(text)
		if loc == nil {
			return -1
		}
		return loc[0]
	}
}

// looseEquality is file-wide: any "==" counts only when "===" appears nowhere.
func looseEquality(text string) int {
	if strings.Contains(text, "===") {
		return -1
	}
	return strings.Index(text, "==")
}

var languageRules = []languageRule{
	{
		languages: []string{"python"},
		kind:      KindBestPractice,
		severity:  SeverityMedium,
		title:     "Bare Except",
		message:   "Avoid bare 'except:' clauses. Specify exception types.",
		find:      firstMatch(bareExceptPattern),
	},
	{
		languages: []string{"python"},
		kind:      KindBug,
		severity:  SeverityHigh,
		title:     "Mutable Default Argument",
		message:   "Mutable default arguments can cause unexpected behavior",
		find:      firstMatch(mutableDefaultPattern),
	},
	{
		languages: []string{"javascript", "typescript"},
		kind:      KindBestPractice,
		severity:  SeverityLow,
		title:     "Var Usage",
		message:   "Consider using 'let' or 'const' instead of 'var'",
		find:      firstMatch(varPattern),
	},
	{
		languages: []string{"javascript", "typescript"},
		kind:      KindBestPractice,
		severity:  SeverityMedium,
		title:     "Loose Equality",
		message:   "Use '===' instead of '==' for type-safe comparison",
		find:      looseEquality,
	},
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}

// DetectIssues runs every rule against text and returns the findings in rule order,
// then match order within a rule. lang selects the language specific rules and is
// compared verbatim.
func DetectIssues(text, lang string) []Issue {
	issues := []Issue{}

	for _, rule := range securityRules {
		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			issues = append(issues, Issue{
				Kind:     KindSecurity,
				Severity: SeverityHigh,
				Title:    rule.title,
				Message:  rule.message,
				Line:     lineAt(text, loc[0]),
			})
		}
	}

	lines := splitLines(text)
	for _, line := range lines {
		if lineLength(line) > MaxLineLength {
			issues = append(issues, Issue{
				Kind:     KindStyle,
				Severity: SeverityLow,
				Title:    "Long Lines",
				Message:  fmt.Sprintf("Some lines exceed %d characters", MaxLineLength),
			})
			break
		}
	}

	for i, line := range lines {
		if strings.Contains(line, "TODO") || strings.Contains(line, "FIXME") {
			issues = append(issues, Issue{
				Kind:     KindMaintenance,
				Severity: SeverityMedium,
				Title:    "Unfinished Code",
				Message:  "TODO/FIXME comment found",
				Line:     i + 1,
			})
		}
	}

	for _, rule := range languageRules {
		if !rule.appliesTo(lang) {
			continue
		}
		offset := rule.find(text)
		if offset < 0 {
			continue
		}
		issues = append(issues, Issue{
			Kind:     rule.kind,
			Severity: rule.severity,
			Title:    rule.title,
			Message:  rule.message,
			Line:     lineAt(text, offset),
		})
	}

	return issues
}
