package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/workbench/internal/sqlite"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

var errMigrateBackend = errors.New("migrations apply to the sqlite backend only")

type migrationStatus struct {
	Path    string `json:"path"`
	Version uint   `json:"version"`
	Dirty   bool   `json:"dirty"`
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema",
		Long:  "Apply, roll back or inspect schema migrations. The server applies pending migrations on start.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.dbPath()
				if err != nil {
					return err
				}
				if err := sqlite.MigrateUp(path, a.logger); err != nil {
					return sysError{err}
				}
				return a.printMigrationStatus(cmd, path)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.dbPath()
				if err != nil {
					return err
				}
				if err := sqlite.MigrateDown(path); err != nil {
					return sysError{err}
				}
				return a.printMigrationStatus(cmd, path)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.dbPath()
				if err != nil {
					return err
				}
				return a.printMigrationStatus(cmd, path)
			},
		},
	)
	return cmd
}

// dbPath returns the database file for the configured data directory,
// creating the directory if needed.
func (a *app) dbPath() (string, error) {
	if a.settings.Backend != types.BackendSQLite {
		return "", errMigrateBackend
	}
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return "", sysError{fmt.Errorf("create data dir: %w", err)}
	}
	return sqlite.DBPath(a.dataDir), nil
}

func (a *app) printMigrationStatus(cmd *cobra.Command, path string) error {
	version, dirty, err := sqlite.MigrationVersion(path)
	if err != nil {
		return sysError{err}
	}
	status := migrationStatus{Path: path, Version: version, Dirty: dirty}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), status)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", status.Version, status.Dirty)
	return nil
}
