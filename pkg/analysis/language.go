package analysis

import "regexp"

// languagePatterns is the detection table. Order matters: on equal scores the
// language declared first wins.
type languagePatterns struct {
	name     string
	patterns []*regexp.Regexp
}

var languageTable = []languagePatterns{
	lang("python", `def\s+\w+\(`, `import\s+\w+`, `from\s+\w+\s+import`, `class\s+\w+:`, `if\s+__name__\s+==`),
	lang("javascript", `function\s+\w+\(`, `const\s+\w+\s*=`, `let\s+\w+\s*=`, `var\s+\w+\s*=`, `=>`, `require\(`),
	lang("typescript", `interface\s+\w+`, `type\s+\w+\s*=`, `:\s*(string|number|boolean)`, `function\s+\w+\(.*\):\s*\w+`),
	lang("java", `public\s+class`, `private\s+\w+\s+\w+`, `public\s+static\s+void\s+main`),
	lang("go", `func\s+\w+\(`, `package\s+\w+`, `import\s+\(`, `:=`, `type\s+\w+\s+struct`),
	lang("rust", `fn\s+\w+\(`, `let\s+mut`, `impl\s+\w+`, `struct\s+\w+`, `use\s+\w+::`),
	lang("c", `#include\s*<`, `int\s+main\s*\(`, `printf\(`, `void\s+\w+\(`),
	lang("cpp", `#include\s*<`, `std::`, `namespace\s+\w+`, `class\s+\w+`),
	lang("ruby", `def\s+\w+`, `end$`, `require\s+`, `@\w+\s*=`),
	lang("php", `<\?php`, `\$\w+\s*=`, `function\s+\w+\(`, `echo\s+`),
	lang("sql", `SELECT\s+`, `FROM\s+`, `WHERE\s+`, `INSERT\s+INTO`, `CREATE\s+TABLE`),
	lang("html", `<html`, `<div`, `<body`, `<!DOCTYPE`),
	lang("css", `\.\w+\s*\{`, `#\w+\s*\{`, `:\s*\w+;`),
}

func lang(name string, exprs ...string) languagePatterns {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(`(?im)` + expr)
	}
	return languagePatterns{name: name, patterns: compiled}
}

// Languages returns the detectable language names in table order.
func Languages() []string {
	names := make([]string, len(languageTable))
	for i, l := range languageTable {
		names[i] = l.name
	}
	return names
}

// DetectLanguage guesses the language of text. Each pattern that matches anywhere
// adds one point; the strictly highest score wins, earlier table entries win ties,
// and Unknown is returned when nothing matches.
func DetectLanguage(text string) string {
	best, bestScore := Unknown, 0
	for _, l := range languageTable {
		score := 0
		for _, p := range l.patterns {
			if p.MatchString(text) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = l.name, score
		}
	}
	return best
}

// LanguageScores returns the per-language pattern hit counts. Languages with no
// hits are omitted.
func LanguageScores(text string) map[string]int {
	scores := make(map[string]int)
	for _, l := range languageTable {
		for _, p := range l.patterns {
			if p.MatchString(text) {
				scores[l.name]++
			}
		}
	}
	return scores
}
