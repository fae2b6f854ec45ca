package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLanguageForPath(t *testing.T) {
	tests := map[string]string{
		"main.py":         "python",
		"APP.PY":          "python",
		"web/index.jsx":   "javascript",
		"src/lib.rs":      "rust",
		"include/util.h":  "cpp",
		"native/io.c":     "c",
		"Program.cs":      "csharp",
		"README.md":       "",
		"Makefile":        "",
		"styles/site.css": "",
	}
	for path, want := range tests {
		assert.Equal(t, want, LanguageForPath(path), path)
		assert.Equal(t, want != "", IsSupportedFile(path), path)
	}
}

func TestIsExcluded(t *testing.T) {
	fa := NewFileAnalyzer(nil, FileOptions{})

	tests := map[string]bool{
		"/repo/node_modules/x.js":   true,
		"node_modules/x.js":         true,
		"/a/.git/config":            true,
		"src/__pycache__/m.py":      true,
		"proj/.venv/lib/site.py":    true,
		"src/venv.py":               false,
		"/repo/src/node_modules.js": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, fa.IsExcluded(path), path)
	}
}

func TestAnalyzeFile(t *testing.T) {
	fa := NewFileAnalyzer(nil, FileOptions{MaxFileSize: 16})

	t.Run("uses extension language", func(t *testing.T) {
		report, err := fa.AnalyzeFile("app.js", "var x = 1;")
		require.NoError(t, err)
		assert.Equal(t, "javascript", report.Language)
		assert.Equal(t, int64(10), report.Size)
		require.NotEmpty(t, report.Result.Issues)
		assert.Equal(t, "Var Usage", report.Result.Issues[0].Title)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := fa.AnalyzeFile("notes.txt", "hello")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		assert.Contains(t, errors.MessageOf(err), ".txt")
	})

	t.Run("too large", func(t *testing.T) {
		_, err := fa.AnalyzeFile("big.py", strings.Repeat("x", 17))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestReadAndAnalyzeMissingFile(t *testing.T) {
	fa := NewFileAnalyzer(nil, DefaultFileOptions())
	_, err := fa.ReadAndAnalyze(filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFileSystem))
}

func TestAnalyzeDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "def f(a=[]):\n    pass\n")
	writeFile(t, root, "web/app.js", "var a = 1;\n")
	writeFile(t, root, "node_modules/lib/index.js", "var skipped = 1;\n")
	writeFile(t, root, "notes.txt", "not code")
	writeFile(t, root, "big.go", strings.Repeat("// padding\n", 10))

	fa := NewFileAnalyzer(nil, FileOptions{MaxFileSize: 64})
	report, err := fa.AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	paths := make([]string, len(report.Files))
	for i, f := range report.Files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{filepath.Join(root, "main.py"), filepath.Join(root, "web", "app.js")}, paths)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, filepath.Join(root, "big.go"), report.Errors[0].Path)

	assert.Equal(t, 2, report.TotalFiles)
	assert.Equal(t, 5, report.TotalLines)
	assert.Equal(t, 2, report.TotalIssues)
	assert.InDelta(t, 91.0, report.AverageQuality, 0.001)
}

func TestAnalyzeDirectoryEmpty(t *testing.T) {
	report, err := NewFileAnalyzer(nil, DefaultFileOptions()).AnalyzeDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.Zero(t, report.AverageQuality)
}

func TestAnalyzeDirectoryRejectsFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1")

	_, err := NewFileAnalyzer(nil, DefaultFileOptions()).AnalyzeDirectory(context.Background(), filepath.Join(root, "a.py"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestAnalyzeDirectoryCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileAnalyzer(nil, DefaultFileOptions()).AnalyzeDirectory(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}
