package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/review"
	"github.com/fumiya-kume/cra/pkg/ui"
)

type analyzeOptions struct {
	language  string
	asJSON    bool
	useAI     bool
	markdown  bool
	failUnder int
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a file or code from stdin",
		Long: `Analyze a single file, or code read from stdin when the argument is "-" or omitted.

Static analysis always runs. With --ai the code is also reviewed by the
configured LLM provider, or by heuristics when no API key is set.`,
		Example: `  cra analyze app.py
  cat main.go | cra analyze --language go
  cra analyze --ai --fail-under 70 handler.js`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("markdown") {
				opts.markdown = a.cfg.UI.Markdown
			}
			return a.runAnalyze(cmd.Context(), cmd.InOrStdin(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "language of the code (detected when empty)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.useAI, "ai", false, "add an AI review")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "render the AI review as markdown")
	cmd.Flags().IntVar(&opts.failUnder, "fail-under", 0, "exit with status 2 when the quality score is below this value")
	return cmd
}

func readSource(in io.Reader, args []string) (name, code string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", errors.FileSystemError(args[0], err)
	}
	return args[0], string(data), nil
}

func (a *app) runAnalyze(ctx context.Context, in io.Reader, args []string, opts *analyzeOptions) error {
	name, code, err := readSource(in, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return errors.ValidationError("no code to analyze")
	}

	language := opts.language
	if language == "" && name != "" {
		language = analysis.LanguageForPath(name)
	}

	var score int
	if opts.useAI {
		score, err = a.analyzeWithAI(ctx, name, code, language, opts)
	} else {
		score, err = a.analyzeStatic(name, code, language, opts)
	}
	if err != nil {
		return err
	}

	if opts.failUnder > 0 && score < opts.failUnder {
		return &exitCodeError{
			code: exitBelowScore,
			msg:  fmt.Sprintf("quality score %d is below %d", score, opts.failUnder),
		}
	}
	return nil
}

func (a *app) analyzeStatic(name, code, language string, opts *analyzeOptions) (int, error) {
	result := analysis.Analyze(code, language)
	if opts.asJSON {
		return result.QualityScore, a.printJSON(result)
	}
	fmt.Fprint(a.out, a.renderer(false).RenderResult(baseName(name), result))
	return result.QualityScore, nil
}

func (a *app) analyzeWithAI(ctx context.Context, name, code, language string, opts *analyzeOptions) (int, error) {
	svc, err := a.buildServices(serviceNeeds{})
	if err != nil {
		return 0, err
	}
	defer svc.Close()

	label := "Reviewing code"
	if name != "" {
		label = "Reviewing " + filepath.Base(name)
	}
	out, err := ui.RunWithProgress(ctx, a.errOut, a.uiTheme(), label, a.interactive(),
		func(ctx context.Context, status func(string)) (interface{}, error) {
			status("asking " + svc.reviewer.Provider())
			return svc.review.ReviewSnippet(ctx, review.SnippetRequest{Code: code, Language: language})
		})
	if err != nil {
		return 0, err
	}
	resp := out.(*review.SnippetResponse)

	switch {
	case opts.asJSON:
		err = a.printJSON(resp)
	case opts.markdown:
		fmt.Fprint(a.out, a.renderer(true).RenderMarkdown(resp.Review))
	default:
		fmt.Fprint(a.out, a.renderer(false).RenderSnippetReview(resp))
	}
	return resp.QualityScore, err
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
