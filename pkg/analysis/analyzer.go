package analysis

// Analyzer runs the full static analysis pipeline. The zero value is ready to use
// and a single instance may be shared between goroutines.
type Analyzer struct{}

// NewAnalyzer creates an analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze runs detection, metrics, issue rules, complexity and scoring over in.
// A declared language is trusted as given and skips detection. Empty input is valid.
func (a *Analyzer) Analyze(in Input) Result {
	lang := in.DeclaredLanguage
	if lang == "" {
		lang = DetectLanguage(in.Text)
	}

	metrics := CollectMetrics(in.Text)
	issues := DetectIssues(in.Text, lang)
	complexity := EstimateComplexity(in.Text)

	return Result{
		Language:        lang,
		Metrics:         metrics,
		Issues:          issues,
		ComplexityScore: complexity,
		QualityScore:    Score(metrics, issues, complexity),
	}
}

// Analyze is shorthand for NewAnalyzer().Analyze with the given text and language.
func Analyze(text, declaredLanguage string) Result {
	return NewAnalyzer().Analyze(Input{Text: text, DeclaredLanguage: declaredLanguage})
}
