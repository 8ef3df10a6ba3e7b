package repositories

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// OpenDB opens the durable store at path. A store that cannot be opened is
// not fatal: the relay continues on an empty in-memory instance and only
// loses durability. Chat must start even when the history cannot load.
func OpenDB(path string, log *slog.Logger) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err == nil {
		return db, nil
	}
	log.Warn("Durable store unavailable, continuing in memory", "path", path, "error", err)

	db, memErr := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if memErr != nil {
		return nil, fmt.Errorf("in-memory fallback failed: %w", memErr)
	}
	return db, nil
}
