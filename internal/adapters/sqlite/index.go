package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"assetdb/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "2"

// Index implements ports.CacheIndex using SQLite. One instance per process,
// shared between the tracker thread and interactive readers; the database
// file lives under the XDG data directory, keyed by a hash of the managed
// root so independent roots never share a cache.
//
// mu serializes individual statements and guards tx. txMu is held for the
// whole span of a transaction, so a second BeginTrans waits for the open
// one to commit or roll back instead of failing.
type Index struct {
	db     *sql.DB
	mu     sync.Mutex
	txMu   sync.Mutex
	tx     *sql.Tx // open transaction, nil if none; guarded by mu
	root   string
	dbPath string
	stale  bool // schema or root mismatch seen at open time
}

// Ensure Index implements CacheIndex
var _ ports.CacheIndex = (*Index)(nil)

// NewIndex creates an unopened index.
func NewIndex() *Index {
	return &Index{}
}

// Open initializes the cache store for the given managed root.
func (idx *Index) Open(root string) error {
	// Expand ~ in path
	if len(root) > 0 && root[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(home, root[1:])
	}

	idx.root = root
	idx.dbPath = databasePath(root)

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// WAL mode for better concurrency between the tracker and readers
	db, err := sql.Open("sqlite", idx.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	idx.db = db

	if err := idx.setup(); err != nil {
		db.Close()
		idx.db = nil
		return err
	}

	// Staleness must be read before updateMeta overwrites the stored
	// values. A store with no meta rows at all is fresh, not stale.
	var version, rootHash string
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'root_path_hash'").Scan(&rootHash)
	idx.stale = version != "" &&
		(version != schemaVersion || rootHash != hashRootPath(root))

	if err := idx.updateMeta(); err != nil {
		db.Close()
		idx.db = nil
		return fmt.Errorf("failed to update cache metadata: %w", err)
	}
	return nil
}

// setup applies pragmas and the schema in a single batch.
func (idx *Index) setup() error {
	_, err := idx.db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			created INTEGER NOT NULL,
			modified INTEGER NOT NULL,
			username TEXT,
			was_deleted INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
		CREATE TABLE IF NOT EXISTS handled_events (
			id INTEGER PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS assets (
			file_id INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			engine_type TEXT,
			size INTEGER NOT NULL DEFAULT 0,
			last_indexed INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS asset_attributes (
			file_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (file_id, name)
		);
		CREATE TABLE IF NOT EXISTS dependencies (
			asset_id INTEGER NOT NULL,
			dependency_id INTEGER NOT NULL,
			PRIMARY KEY (asset_id, dependency_id)
		);
		CREATE INDEX IF NOT EXISTS idx_dependencies_dep ON dependencies(dependency_id);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to setup cache database: %w", err)
	}
	return nil
}

// Close closes the database connection, rolling back any open transaction.
func (idx *Index) Close() error {
	idx.mu.Lock()
	hadTx := idx.tx != nil
	if hadTx {
		idx.tx.Rollback()
		idx.tx = nil
	}
	idx.mu.Unlock()
	if hadTx {
		idx.txMu.Unlock()
	}
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// NeedsRecreate returns true if the store was built by a different schema
// version or for a different root.
func (idx *Index) NeedsRecreate() bool {
	return idx.stale
}

// Recreate drops every table, including the handled event set, and
// reinitializes the schema. The caller replays the event history afterwards.
func (idx *Index) Recreate() error {
	if !idx.txMu.TryLock() {
		return fmt.Errorf("cannot recreate inside an open transaction")
	}
	defer idx.txMu.Unlock()
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, err := idx.db.Exec(`
		DROP TABLE IF EXISTS files;
		DROP TABLE IF EXISTS handled_events;
		DROP TABLE IF EXISTS assets;
		DROP TABLE IF EXISTS asset_attributes;
		DROP TABLE IF EXISTS dependencies;
		DROP TABLE IF EXISTS meta;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop cache tables: %w", err)
	}
	if err := idx.setup(); err != nil {
		return err
	}
	if err := idx.updateMeta(); err != nil {
		return fmt.Errorf("failed to update cache metadata: %w", err)
	}
	idx.stale = false
	return nil
}

// Root returns the managed assets root this index was opened for.
func (idx *Index) Root() string {
	return idx.root
}

// databasePath returns the path for the SQLite database.
func databasePath(root string) string {
	// XDG data directory
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "assetdb", hashRootPath(root)+".db")
}

// hashRootPath returns a short hash of the managed root path.
func hashRootPath(root string) string {
	h := sha256.Sum256([]byte(root))
	return hex.EncodeToString(h[:8])
}

// updateMeta updates the schema version and root path hash.
func (idx *Index) updateMeta() error {
	if _, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)
	`, schemaVersion); err != nil {
		return err
	}
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('root_path_hash', ?)
	`, hashRootPath(idx.root))
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// q routes statements through the open transaction when there is one.
// Callers must hold mu.
func (idx *Index) q() querier {
	if idx.tx != nil {
		return idx.tx
	}
	return idx.db
}

// BeginTrans opens the store's single transaction. Composable operations
// check IsTransOpen first; only the opener commits or rolls back. When
// another goroutine has a transaction open this blocks until it finishes.
func (idx *Index) BeginTrans() error {
	idx.txMu.Lock()
	tx, err := idx.db.Begin()
	if err != nil {
		idx.txMu.Unlock()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	idx.mu.Lock()
	idx.tx = tx
	idx.mu.Unlock()
	return nil
}

// CommitTrans commits the open transaction.
func (idx *Index) CommitTrans() error {
	idx.mu.Lock()
	if idx.tx == nil {
		idx.mu.Unlock()
		return fmt.Errorf("no transaction open")
	}
	err := idx.tx.Commit()
	idx.tx = nil
	idx.mu.Unlock()
	idx.txMu.Unlock()
	return err
}

// RollbackTrans aborts the open transaction.
func (idx *Index) RollbackTrans() error {
	idx.mu.Lock()
	if idx.tx == nil {
		idx.mu.Unlock()
		return fmt.Errorf("no transaction open")
	}
	err := idx.tx.Rollback()
	idx.tx = nil
	idx.mu.Unlock()
	idx.txMu.Unlock()
	return err
}

// IsTransOpen reports whether a transaction is open.
func (idx *Index) IsTransOpen() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.tx != nil
}
