// Package registry stores the registered version of each node type in a
// SQLite database, together with the history of accepted changes.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"ntdiff/internal/errors"
	"ntdiff/internal/slogutil"
)

// Registry is a node type registry backed by a SQLite database.
type Registry struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
	blobs  *blobCodec
	now    func() time.Time
}

// Open opens or creates the registry database at path. With compress set,
// definitions written from now on are stored zstd-compressed; existing rows
// stay readable either way.
func Open(path string, compress bool, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.New(errors.StorageFailure, fmt.Sprintf("cannot create %s", dir), err)
		}
	}

	dbExists := fileExists(path)

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.StorageFailure, "failed to open registry database", err)
	}

	// One connection, so per-connection pragmas hold for every statement.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000", // Wait up to 5 seconds on lock
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.New(errors.StorageFailure, "failed to set pragma", err)
		}
	}

	blobs, err := newBlobCodec(compress)
	if err != nil {
		_ = conn.Close()
		return nil, errors.New(errors.InternalError, "failed to create zstd codec", err)
	}

	r := &Registry{
		conn:   conn,
		logger: logger,
		path:   path,
		blobs:  blobs,
		now:    time.Now,
	}

	if !dbExists {
		logger.Info("Creating new registry", "path", path)
		err = r.initializeSchema()
	} else {
		logger.Debug("Running registry migrations", "path", path)
		err = r.runMigrations()
	}
	if err != nil {
		_ = conn.Close()
		return nil, errors.New(errors.StorageFailure, "failed to prepare registry schema", err)
	}

	return r, nil
}

// Path returns the database file path.
func (r *Registry) Path() string {
	return r.path
}

// Close closes the database connection
func (r *Registry) Close() error {
	r.blobs.close()
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// withTx executes fn within a transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (r *Registry) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.New(errors.StorageFailure, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.New(errors.StorageFailure, "failed to commit transaction", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
