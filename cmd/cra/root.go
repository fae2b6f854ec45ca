package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/logger"
	"github.com/fumiya-kume/cra/pkg/ui"
)

// Exit codes
const (
	exitOK         = 0
	exitError      = 1
	exitBelowScore = 2
)

// exitCodeError ends the command with a specific exit code
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// app holds global flag values and the state built by initConfig
type app struct {
	cfgFile  string
	verbose  bool
	debug    bool
	logLevel string
	logFile  string
	noColor  bool
	theme    string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	loader *config.Loader
	cfg    *config.Config
	log    *logger.Logger
}

func newApp() *app {
	return &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	a := newApp()
	return a.execute(newRootCmd(a), os.Args[1:])
}

func (a *app) execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}

	var coded *exitCodeError
	if stderrors.As(err, &coded) {
		if coded.msg != "" {
			fmt.Fprintln(a.errOut, coded.msg)
		}
		return coded.code
	}

	msg := errors.MessageOf(err)
	if a.debug {
		msg = err.Error()
	}
	fmt.Fprintf(a.errOut, "Error: %s\n", msg)
	for _, s := range errors.GetSuggestions(err) {
		fmt.Fprintf(a.errOut, "  hint: %s\n", s)
	}
	return exitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cra",
		Short: "Code review assistant",
		Long: `cra reviews code with static analysis and an optional LLM.

It can analyze snippets and files, scan directories, review GitHub pull
requests and local git changes, watch a tree for changes, and serve the
review API over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default searches $CRA_CONFIG, ./.cra.yaml, ~/.cra.yaml, ~/.config/cra/config.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&a.debug, "debug", false, "debug output")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFile, "log-file", "", "log file path")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&a.theme, "theme", "", "UI theme (dark, light, auto)")

	root.AddCommand(
		newAnalyzeCmd(a),
		newScanCmd(a),
		newReviewCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// initConfig loads configuration, applies flag overrides and sets up logging.
// A broken config file is reported and the defaults are used instead.
func (a *app) initConfig() error {
	a.loader = config.NewLoader(a.cfgFile)
	cfg, err := a.loader.LoadConfig()
	if err != nil {
		if a.cfgFile != "" {
			return err
		}
		fmt.Fprintf(a.errOut, "Warning: failed to load config, using defaults: %s\n", errors.MessageOf(err))
		cfg = config.DefaultConfig()
	}

	if a.debug {
		cfg.Logging.Level = "debug"
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Logging.File = a.logFile
	}
	if a.theme != "" {
		cfg.UI.Theme = a.theme
	}
	if a.noColor {
		cfg.UI.NoColor = true
	}
	a.cfg = cfg

	loggerConfig := cfg.ToLoggerConfig()
	if !a.verbose && !a.debug && a.logLevel == "" && loggerConfig.Level < logger.LevelWarn {
		// only warnings unless asked for more
		loggerConfig.Level = logger.LevelWarn
	}
	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: failed to initialize logger: %v\n", err)
		log = logger.NewDefault()
	}
	a.log = log
	logger.SetGlobalLogger(log)
	return nil
}

func (a *app) uiTheme() ui.Theme {
	return ui.ThemeForConfig(a.cfg.UI)
}

func (a *app) renderer(markdown bool) *ui.Renderer {
	return ui.NewRenderer(a.uiTheme(), ui.WithMarkdown(markdown))
}

// interactive reports whether stderr is a terminal that can show a spinner
func (a *app) interactive() bool {
	f, ok := a.errOut.(*os.File)
	if !ok || a.cfg.UI.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
