// Package sqlite provides the public API for the SQLite contact backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/internal/sqlite"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
// A nil logger discards log output.
//
// Example:
//
//	backend := sqlite.NewBackend(logger)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".contactbook-db",
//	})
//	defer backend.Detach()
func NewBackend(logger *zap.Logger) types.Backend {
	return sqlite.NewBackend(logger)
}
