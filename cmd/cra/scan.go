package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/ui"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		excludes  []string
		asJSON    bool
		failUnder float64
	)
	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Analyze every supported file under a directory",
		Example: `  cra scan ./src
  cra scan . --exclude '*/testdata/*' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Analysis.FileOptions()
			opts.ExcludePatterns = append(append([]string(nil), opts.ExcludePatterns...), excludes...)
			files := analysis.NewFileAnalyzer(nil, opts)

			out, err := ui.RunWithProgress(cmd.Context(), a.errOut, a.uiTheme(), "Scanning "+args[0], a.interactive(),
				func(ctx context.Context, _ func(string)) (interface{}, error) {
					return files.AnalyzeDirectory(ctx, args[0])
				})
			if err != nil {
				return err
			}
			report := out.(*analysis.DirectoryReport)

			if asJSON {
				err = a.printJSON(report)
			} else {
				fmt.Fprint(a.out, a.renderer(false).RenderDirectory(report))
			}
			if err != nil {
				return err
			}

			if failUnder > 0 && report.TotalFiles > 0 && report.AverageQuality < failUnder {
				return &exitCodeError{
					code: exitBelowScore,
					msg:  fmt.Sprintf("average quality %.1f is below %.0f", report.AverageQuality, failUnder),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "additional glob patterns to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().Float64Var(&failUnder, "fail-under", 0, "exit with status 2 when the average quality is below this value")
	return cmd
}
