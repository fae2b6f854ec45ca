package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/review"
	"github.com/fumiya-kume/cra/pkg/ui"
)

func newReviewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a pull request or local changes",
	}
	cmd.AddCommand(newReviewPRCmd(a), newReviewLocalCmd(a))
	return cmd
}

func newReviewPRCmd(a *app) *cobra.Command {
	var (
		comment bool
		noAI    bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:     "pr <owner/repo> <number>",
		Short:   "Review a GitHub pull request",
		Example: `  cra review pr octo/cra 42 --comment`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil || number <= 0 {
				return errors.ValidationError("pull request number must be a positive integer: " + args[1])
			}
			if !cmd.Flags().Changed("comment") {
				comment = a.cfg.Review.PostComments
			}

			svc, err := a.buildServices(serviceNeeds{store: true, github: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			label := fmt.Sprintf("Reviewing %s#%d", args[0], number)
			out, err := ui.RunWithProgress(cmd.Context(), a.errOut, a.uiTheme(), label, a.interactive(),
				func(ctx context.Context, _ func(string)) (interface{}, error) {
					return svc.review.ReviewPullRequest(ctx, review.PRRequest{
						Repository:   args[0],
						PRNumber:     number,
						PostComments: comment,
						DisableAI:    noAI,
					})
				})
			if err != nil {
				return err
			}
			result := out.(*review.PRReviewResult)

			if asJSON {
				return a.printJSON(result)
			}
			title := fmt.Sprintf("%s #%d", result.Repository, result.PRNumber)
			fmt.Fprint(a.out, a.renderer(false).RenderFiles(title, result.Files, result.QualityScore))
			for _, path := range result.FilesSkipped {
				fmt.Fprintf(a.out, "skipped %s\n", path)
			}
			if comment {
				fmt.Fprintf(a.out, "Posted %d comments\n", result.CommentsPosted)
			}
			if result.ReviewUUID != "" {
				fmt.Fprintf(a.out, "Review %s\n", result.ReviewUUID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&comment, "comment", false, "post findings as pull request comments")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "static analysis only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newReviewLocalCmd(a *app) *cobra.Command {
	var (
		base        string
		path        string
		uncommitted bool
		noAI        bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Review local git changes",
		Long: `Review the files changed on the current branch since it diverged from --base,
or the uncommitted changes in the working tree with --uncommitted.`,
		Example: `  cra review local --base main
  cra review local --uncommitted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.buildServices(serviceNeeds{store: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			out, err := ui.RunWithProgress(cmd.Context(), a.errOut, a.uiTheme(), "Reviewing local changes", a.interactive(),
				func(ctx context.Context, _ func(string)) (interface{}, error) {
					return svc.review.ReviewLocalChanges(ctx, review.LocalRequest{
						RepoPath:    path,
						BaseRef:     base,
						Uncommitted: uncommitted,
						DisableAI:   noAI,
					})
				})
			if err != nil {
				return err
			}
			result := out.(*review.LocalReviewResult)

			if asJSON {
				return a.printJSON(result)
			}
			title := "Local changes on " + result.Branch
			if result.BaseRef != "" {
				title += " against " + result.BaseRef
			}
			fmt.Fprint(a.out, a.renderer(false).RenderFiles(title, result.Files, result.AverageQuality))
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "main", "branch or commit to compare against")
	cmd.Flags().StringVar(&path, "path", ".", "path inside the repository")
	cmd.Flags().BoolVar(&uncommitted, "uncommitted", false, "review uncommitted changes instead of commits")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "static analysis only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
