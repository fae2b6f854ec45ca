package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/ui"
	"github.com/fumiya-kume/cra/pkg/watch"
)

type watchOptions struct {
	minScore int
	initial  bool
	notify   bool
}

func newWatchCmd(a *app) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-analyze files as they change",
		Long: `Watch a directory tree and analyze supported files whenever they are saved.

A desktop notification is sent when a file scores below --min-score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-score") {
				opts.minScore = a.cfg.Review.MinQualityScore
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, args[0], opts, ui.NewNotifier(a.cfg.UI.Sound))
		},
	}
	cmd.Flags().IntVar(&opts.minScore, "min-score", 0, "notify when a file scores below this value (default from review.min_quality_score)")
	cmd.Flags().BoolVar(&opts.initial, "initial", false, "analyze every file once before watching")
	cmd.Flags().BoolVar(&opts.notify, "notify", true, "send desktop notifications")
	return cmd
}

func (a *app) runWatch(ctx context.Context, root string, opts *watchOptions, notifier *ui.Notifier) error {
	w, err := watch.New(root, watch.Options{
		Files:       analysis.NewFileAnalyzer(nil, a.cfg.Analysis.FileOptions()),
		InitialScan: opts.initial,
	}, a.log)
	if err != nil {
		return err
	}

	theme := a.uiTheme()
	fmt.Fprintf(a.out, "Watching %s (ctrl+c to stop)\n", root)

	return w.Run(ctx, func(e watch.Event) {
		if e.Err != nil {
			fmt.Fprintf(a.out, "%s %s: %s\n", theme.Styles.Poor.Render("✗"), e.Path, errors.MessageOf(e.Err))
			return
		}

		result := e.Report.Result
		fmt.Fprintf(a.out, "%s %s %s\n",
			theme.ScoreStyle(result.QualityScore).Render(fmt.Sprintf("%3d", result.QualityScore)),
			e.Path,
			theme.Styles.Muted.Render(fmt.Sprintf("(%d issues)", len(result.Issues))))

		if opts.notify && result.QualityScore < opts.minScore {
			msg := fmt.Sprintf("%s scored %d/100 (%d issues)", e.Path, result.QualityScore, len(result.Issues))
			if err := notifier.Notify("cra: quality below "+fmt.Sprint(opts.minScore), msg); err != nil {
				a.log.Debug("Notification failed (error: %v)", err)
			}
		}
	})
}
