package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlite-integrated/database"
	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/config"
	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/logging"
)

// configEnv names the environment variable holding the config file path.
const configEnv = "SQLITEI_CONFIG"

// options holds the global flags.
type options struct {
	configPath string
	dbPath     string
	verbose    bool
}

// session is what every subcommand works with once flags are parsed.
type session struct {
	cfg *config.Config
	log *logging.Logger
	db  *database.Database
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "sqlitei",
		Short:         "Inspect and query SQLite databases",
		Long:          `sqlitei prints SQLite tables, runs SQL against them and serves a read-only table browser.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $"+configEnv+", else built-in defaults)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database file, overriding database.path")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log executed SQL")

	root.AddCommand(
		newOverviewCmd(opts),
		newTableCmd(opts),
		newGetCmd(opts),
		newSQLCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// getConfigPath returns the configuration file path.
// Uses the --config flag, then SQLITEI_CONFIG, otherwise none.
func (o *options) getConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return os.Getenv(configEnv)
}

// open loads configuration, applies the global flags and opens the database.
//
// Parameters:
//   - ctx: Context for opening the database
//
// Returns:
//   - *session: Loaded configuration, logger and open database
//   - error: If configuration or the database cannot be loaded
func (o *options) open(ctx context.Context) (*session, error) {
	cfg, err := config.Load(o.getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.verbose {
		cfg.Database.Verbose = true
	}

	log := logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
		Path:           cfg.Database.Path,
		Create:         cfg.Database.Create,
		WALMode:        cfg.Database.WALMode,
		BusyTimeout:    cfg.Database.BusyTimeout,
		DefaultIDField: cfg.Database.DefaultIDField,
		Verbose:        cfg.Database.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetLogger(log.Component("database").Logger)
	log.Debug("database connected", "path", db.Path())

	return &session{cfg: cfg, log: log, db: db}, nil
}

// close closes the database, logging any failure.
func (s *session) close() error {
	if err := s.db.Close(); err != nil {
		s.log.Error("error closing database", "error", err)
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, opts *options, fn func(*session) error) (err error) {
	s, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.close(); err == nil {
			err = closeErr
		}
	}()
	return fn(s)
}
