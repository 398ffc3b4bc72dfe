package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/psyche/internal/config"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	out io.Writer
	err io.Writer

	cfg *config.Config
	log zerolog.Logger

	logLevel string
	logJSON  bool
	dbDriver string
	dbDSN    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout, err: stderr}
	root := &cobra.Command{
		Use:           "psyche",
		Short:         "Psychometric profiling for language models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from PSYCHE_LOG_LEVEL)")
	pf.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON instead of console text")
	pf.StringVar(&a.dbDriver, "db-driver", "", "database driver: sqlite or postgres (default from PSYCHE_DB_DRIVER)")
	pf.StringVar(&a.dbDSN, "db", "", "database DSN (default from PSYCHE_DB_DSN)")

	root.AddCommand(
		newRunCmd(a),
		newScoreCmd(a),
		newShowCmd(a),
		newRunsCmd(a),
		newLeaderboardCmd(a),
		newServeCmd(a),
		newPersonasCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.dbDriver != "" {
		cfg.DBDriver = a.dbDriver
	}
	if a.dbDSN != "" {
		cfg.DBDSN = a.dbDSN
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	var w io.Writer = zerolog.ConsoleWriter{Out: a.err, TimeFormat: "15:04:05"}
	if a.logJSON {
		w = a.err
	}
	a.log = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return nil
}
