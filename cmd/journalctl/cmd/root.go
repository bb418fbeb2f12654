package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/logger"
)

type options struct {
	dbPath string
}

// NewRootCmd builds the journalctl command tree. Settings not given as flags
// come from the same environment as the server.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "journalctl",
		Short: "Offline tools for the trade journal",
		Long: `journalctl works directly on the trade journal database and parsers.

Subcommands:
  parse    - Parse text copied from a trading platform and print it as JSON
  stats    - Print journal statistics
  export   - Merge all trades into the Excel workbook
  migrate  - Apply database migrations

Examples:
  pbpaste | journalctl parse
  journalctl stats --db ./trades.db
  journalctl export --out ./trades_export.xlsx`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			// Logs go to stderr so command output stays machine readable.
			level, _ := logger.ParseLevel(config.Cfg.LogLevel)
			logger.L = logger.New(cmd.ErrOrStderr(), level)
			if opts.dbPath == "" {
				opts.dbPath = config.Cfg.DatabasePath
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.dbPath, "db", "d", "", "path to the SQLite journal (default $DATABASE_PATH)")

	root.AddCommand(newParseCmd())
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// openJournal opens and migrates the journal database.
func openJournal(opts *options) (*sql.DB, error) {
	db, err := database.Open(opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openJournal(opts)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", opts.dbPath)
			return nil
		},
	}
}
