// Package cli implements the workbench command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/workbench/internal/paths"
	"github.com/mesh-intelligence/workbench/pkg/store"
	"github.com/mesh-intelligence/workbench/pkg/types"
	"github.com/mesh-intelligence/workbench/pkg/workbench"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// annotationNoConfig marks commands that run without loading configuration.
const annotationNoConfig = "no-config"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
}

// app is the state one invocation shares across its subcommands.
type app struct {
	flags    rootFlags
	settings settings
	dataDir  string
	logger   *log.Logger
}

// sysError marks failures of the environment rather than of the input.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var (
		se sysError
		be *types.BackendError
	)
	if errors.As(err, &se) || errors.As(err, &be) {
		return exitSysError
	}
	return exitUserError
}

// NewRootCmd creates the top-level "workbench" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "workbench",
		Short:   "A task workspace with an HTTP API",
		Long:    "Workbench stores tasks with their subtasks, comments and requirements,\nand serves them over a JSON HTTP API.",
		Version: workbench.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoConfig] != "" {
				return nil
			}
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: sqlite or memory (overrides config)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newTaskCmd(a),
		newUserCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "workbench:", err)
		os.Exit(exitCode(err))
	}
}

// load resolves directories, reads configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError{fmt.Errorf("resolve config dir: %w", err)}
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return sysError{err}
	}
	if a.flags.backend != "" {
		s.Backend = a.flags.backend
	}
	a.settings = s

	a.dataDir, err = paths.ResolveDataDir(a.flags.dataDir, s.DataDir)
	if err != nil {
		return sysError{fmt.Errorf("resolve data dir: %w", err)}
	}

	a.logger, err = newLogger(s.LogLevel, s.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger.WithFields(log.Fields{
		"config_dir": configDir,
		"data_dir":   a.dataDir,
		"backend":    s.Backend,
	}).Debug("configuration loaded")
	return nil
}

func (a *app) storeConfig() types.Config {
	return types.Config{Backend: a.settings.Backend, DataDir: a.dataDir}
}

// openStore opens the configured backend. The caller must Close it.
func (a *app) openStore() (types.Store, error) {
	cfg := a.storeConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend %q: %w", cfg.Backend, err)
	}
	s, err := store.Open(cfg, a.logger)
	if err != nil {
		return nil, sysError{fmt.Errorf("open store: %w", err)}
	}
	return s, nil
}
