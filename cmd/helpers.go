package cmd

import (
	"go.uber.org/zap"

	"github.com/termkeep/termkeep/internal/backend"
	"github.com/termkeep/termkeep/internal/logging"
	"github.com/termkeep/termkeep/internal/store"
)

// setup opens the store, the debug log, and selects the backend for this
// invocation. A store-directory failure is the only error that escapes to
// cobra: everything downstream is reported through the result object.
func setup() (*store.Store, backend.Backend, *zap.Logger, error) {
	log := logging.Open(logging.DefaultPath())

	st, err := store.New(store.DefaultDir())
	if err != nil {
		return nil, nil, nil, err
	}

	return st, backend.Select(st, log), log, nil
}
