package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stipendi/internal/cli"
	"stipendi/internal/config"
	"stipendi/internal/log"
	"stipendi/internal/remote"
)

// closeTimeout bounds the wait for background pushes when a command exits.
const closeTimeout = 30 * time.Second

// app carries the state shared by every subcommand.
type app struct {
	out    io.Writer
	logOut io.Writer

	logLevel string
	backend  string
	dbPath   string
	noRemote bool

	// overrides used by tests
	now    func() time.Time
	remote remote.Store

	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stipendi",
		Short: "Registro personale degli stipendi",
		Long: `stipendi keeps a personal ledger of monthly salaries: twelve months plus
the 13th and 14th payments, stored locally and backed up to a GitHub file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "local store: sqlite or memory (default from DATA_BACKEND)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default from SQLITE_DB_PATH)")
	root.PersistentFlags().BoolVar(&a.noRemote, "offline", false, "do not read or write the remote file")

	root.AddCommand(
		showCmd(a),
		setCmd(a),
		monthCmd(a),
		stepMonthCmd(a, "next", "Passa al mese successivo", 1),
		stepMonthCmd(a, "prev", "Torna al mese precedente", -1),
		yearCmd(a),
		stepYearCmd(a, "next-year", "Passa all'anno successivo", 1),
		stepYearCmd(a, "prev-year", "Torna all'anno precedente", -1),
		themeCmd(a),
		compareCmd(a),
		exportCmd(a),
		importCmd(a),
		refreshCmd(a),
		historyCmd(a),
		loginCmd(a),
		logoutCmd(a),
		serveCmd(a),
	)
	return root
}

// init loads .env and the environment, applies flag overrides and sets up
// logging.
func (a *app) init(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	cfg := config.Load()
	if a.backend != "" {
		cfg.DataBackend = a.backend
	}
	if a.dbPath != "" {
		cfg.SQLiteDBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.noRemote {
		cfg.RemoteEnabled = false
	}

	a.logger = cli.SetupLogger(cfg.LogLevel, a.logOut)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	if a.now == nil {
		a.now = time.Now
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{out: os.Stdout, logOut: os.Stderr}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
