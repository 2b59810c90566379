// Package store opens the configured types.Store backend and provides
// operations that work across backends, such as seeding and export.
package store

import (
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/workbench/internal/memory"
	"github.com/mesh-intelligence/workbench/internal/sqlite"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

// Open returns the backend named by cfg.Backend. The logger may be nil.
//
// Example:
//
//	s, err := store.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".workbench",
//	}, logger)
//	defer s.Close()
func Open(cfg types.Config, logger *log.Logger) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendMemory:
		return memory.New(), nil
	default:
		return sqlite.Open(cfg, sqlite.WithLogger(logger))
	}
}
