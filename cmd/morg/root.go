package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryotapoi/morg/internal/core"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	debug   bool
	verbose bool
	config  string
	journal string
	format  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "morg",
		Short: "Move and copy org documents together with the images they link to",
		Long: `morg relocates org-mode documents and their images, rewriting
[[file:...]] links so that they keep resolving after the move.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("morg version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.BoolVarP(&g.debug, "debug", "d", false, "enable debug output")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&g.config, "config", "", "config file (default ./"+core.ConfigFileName+")")
	pf.StringVar(&g.journal, "journal", "", "record runs in this sqlite journal")
	pf.StringVar(&g.format, "format", "text", "output format (json or text)")

	root.AddCommand(
		newMimdirCmd(g),
		newMorgCmd(g),
		newCorgCmd(g),
		newDevCmd(g),
		newHistoryCmd(g),
	)
	return root
}

// env is the per-invocation state built from globalFlags.
type env struct {
	opts    *core.Options
	journal *core.Journal
}

func (g *globalFlags) setup(stderr io.Writer) (*env, error) {
	if err := validateFormat(g.format); err != nil {
		return nil, err
	}
	path := g.config
	if path == "" {
		path = core.ConfigFileName
	}
	cfg, err := core.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if g.journal != "" {
		cfg.Journal = g.journal
	}

	e := &env{opts: &core.Options{
		Debug:   g.debug,
		Verbose: g.verbose,
		Config:  cfg,
		Logger:  newLogger(stderr, g.debug, g.verbose),
	}}
	if cfg.Journal != "" {
		j, err := core.OpenJournal(cfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		e.journal = j
	}
	return e, nil
}

func (e *env) close() {
	if e.journal != nil {
		e.journal.Close()
	}
}

func (e *env) record(run core.Run, result *core.Result) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(run, result); err != nil {
		e.opts.Logger.Error("journal write failed", "run", run.ID, "err", err)
	}
}

// relocation is the signature shared by the core orchestrator operations.
type relocation func(src, dst string, opts *core.Options) *core.Result

// runRelocation runs op and prints its result. Problems are printed but do
// not make the command fail.
func runRelocation(cmd *cobra.Command, g *globalFlags, op relocation, args []string) error {
	e, err := g.setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	run := core.NewRun(cmd.Name(), args[0], args[1])
	e.opts.Logger.Info(cmd.Short, "source", args[0], "target", args[1])
	result := op(args[0], args[1], e.opts)
	e.record(run, result)

	printProblems(cmd.ErrOrStderr(), result.Problems)
	switch g.format {
	case "json":
		return printResultJSON(cmd.OutOrStdout(), cmd.Name(), result)
	default:
		printResultText(cmd.OutOrStdout(), result)
		return nil
	}
}

// newLogger returns a text logger without timestamps. The level follows the
// --debug and --verbose flags.
func newLogger(w io.Writer, debug, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
