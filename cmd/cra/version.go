package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// version is set by build flags
	version = "dev"
	// buildDate is set by build flags
	buildDate = "unknown"
	// gitCommit is set by build flags
	gitCommit = "unknown"
)

func newVersionCmd(a *app) *cobra.Command {
	var detailed, short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			switch {
			case short:
				fmt.Fprintln(a.out, version)
			case detailed:
				fmt.Fprintf(a.out, "cra version %s\n", version)
				fmt.Fprintf(a.out, "Build date: %s\n", buildDate)
				fmt.Fprintf(a.out, "Git commit: %s\n", gitCommit)
				fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
				fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			default:
				fmt.Fprintf(a.out, "cra version %s\n", version)
			}
		},
	}
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "show detailed version information")
	cmd.Flags().BoolVarP(&short, "short", "s", false, "show only version number")
	return cmd
}
