package analysis

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// DefaultMaxFileSize is the largest file AnalyzeFile accepts (10 MiB)
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultExcludePatterns are skipped by directory scans. "*" also matches "/".
var DefaultExcludePatterns = []string{
	"*/node_modules/*",
	"*/.venv/*",
	"*/venv/*",
	"*/__pycache__/*",
	"*/.git/*",
}

var extensionLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".go":   "go",
	".rs":   "rust",
	".c":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".h":    "cpp",
	".cs":   "csharp",
	".rb":   "ruby",
	".php":  "php",
}

// LanguageForPath maps a file extension to a language name, or "" when unsupported.
func LanguageForPath(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}

// IsSupportedFile reports whether path has an analyzable extension
func IsSupportedFile(path string) bool {
	return LanguageForPath(path) != ""
}

// FileOptions configures file and directory analysis
type FileOptions struct {
	MaxFileSize     int64
	ExcludePatterns []string
}

// DefaultFileOptions returns the standard limits and exclusions
func DefaultFileOptions() FileOptions {
	return FileOptions{
		MaxFileSize:     DefaultMaxFileSize,
		ExcludePatterns: append([]string(nil), DefaultExcludePatterns...),
	}
}

// FileReport is the analysis of one file
type FileReport struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Size     int64  `json:"size"`
	Result   Result `json:"result"`
}

// FileError records a file that could not be analyzed during a scan
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// DirectoryReport aggregates a directory scan
type DirectoryReport struct {
	Root           string       `json:"root"`
	Files          []FileReport `json:"files"`
	Errors         []FileError  `json:"errors,omitempty"`
	TotalFiles     int          `json:"total_files"`
	TotalLines     int          `json:"total_lines"`
	TotalIssues    int          `json:"total_issues"`
	AverageQuality float64      `json:"average_quality"`
}

// FileAnalyzer applies the engine to files on disk
type FileAnalyzer struct {
	analyzer *Analyzer
	options  FileOptions
	excludes []*regexp.Regexp
}

// NewFileAnalyzer creates a file analyzer. Zero option values fall back to the defaults.
func NewFileAnalyzer(analyzer *Analyzer, options FileOptions) *FileAnalyzer {
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = DefaultMaxFileSize
	}
	if options.ExcludePatterns == nil {
		options.ExcludePatterns = DefaultExcludePatterns
	}

	excludes := make([]*regexp.Regexp, 0, len(options.ExcludePatterns))
	for _, p := range options.ExcludePatterns {
		excludes = append(excludes, globToRegexp(p))
	}

	return &FileAnalyzer{analyzer: analyzer, options: options, excludes: excludes}
}

// globToRegexp translates a shell glob where "*" and "?" may cross "/".
func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// IsExcluded reports whether path matches one of the exclude patterns
func (fa *FileAnalyzer) IsExcluded(path string) bool {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") && !strings.HasPrefix(slashed, "./") {
		slashed = "./" + slashed
	}
	for _, re := range fa.excludes {
		if re.MatchString(slashed) {
			return true
		}
	}
	return false
}

// AnalyzeFile analyzes content as the file at path. The language comes from the extension.
func (fa *FileAnalyzer) AnalyzeFile(path, content string) (*FileReport, error) {
	lang := LanguageForPath(path)
	if lang == "" {
		return nil, errors.NewError(errors.ErrorTypeValidation).
			WithMessagef("unsupported file type: %s", filepath.Ext(path)).
			WithSeverity(errors.SeverityLow).
			WithContext("path", path).
			Build()
	}

	size := int64(len(content))
	if size > fa.options.MaxFileSize {
		return nil, errors.NewError(errors.ErrorTypeValidation).
			WithMessagef("file too large: %d bytes (max %d)", size, fa.options.MaxFileSize).
			WithSeverity(errors.SeverityLow).
			WithContext("path", path).
			WithContext("size", size).
			Build()
	}

	return &FileReport{
		Path:     path,
		Language: lang,
		Size:     size,
		Result:   fa.analyzer.Analyze(Input{Text: content, DeclaredLanguage: lang}),
	}, nil
}

// ReadAndAnalyze reads path from disk and analyzes it
func (fa *FileAnalyzer) ReadAndAnalyze(path string) (*FileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.FileSystemError(path, err)
	}
	if info.Size() > fa.options.MaxFileSize {
		return nil, errors.NewError(errors.ErrorTypeValidation).
			WithMessagef("file too large: %d bytes (max %d)", info.Size(), fa.options.MaxFileSize).
			WithSeverity(errors.SeverityLow).
			WithContext("path", path).
			Build()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError(path, err)
	}
	return fa.AnalyzeFile(path, string(data))
}

// AnalyzeDirectory walks root and analyzes every supported, non-excluded file.
// Per-file failures are recorded on the report and do not stop the walk.
func (fa *FileAnalyzer) AnalyzeDirectory(ctx context.Context, root string) (*DirectoryReport, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.FileSystemError(root, err)
	}
	if !info.IsDir() {
		return nil, errors.ValidationError(root + " is not a directory")
	}

	report := &DirectoryReport{Root: root, Files: []FileReport{}}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Error: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && fa.IsExcluded(path+string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsSupportedFile(path) || fa.IsExcluded(path) {
			return nil
		}

		fileReport, err := fa.ReadAndAnalyze(path)
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Error: errors.MessageOf(err)})
			return nil
		}
		report.Files = append(report.Files, *fileReport)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	report.summarize()

	return report, nil
}

func (r *DirectoryReport) summarize() {
	r.TotalFiles = len(r.Files)
	if r.TotalFiles == 0 {
		return
	}

	qualitySum := 0
	for _, f := range r.Files {
		r.TotalLines += f.Result.Metrics.TotalLines
		r.TotalIssues += len(f.Result.Issues)
		qualitySum += f.Result.QualityScore
	}
	r.AverageQuality = float64(qualitySum) / float64(r.TotalFiles)
}
