package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the journal database file inside the gallerist home directory.
const FileName = "journal.db"

// migrations are applied in order; migrations[i] moves user_version from i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS activity (
	  id          TEXT PRIMARY KEY,
	  gallery     TEXT NOT NULL,
	  op          TEXT NOT NULL,
	  target      TEXT,
	  status      TEXT NOT NULL,
	  error_code  TEXT,
	  message     TEXT,
	  duration_ms INTEGER NOT NULL,
	  created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_gallery_created ON activity(gallery, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_activity_op ON activity(gallery, op, created_at DESC);`,
}

// CurrentSchemaVersion is the user_version after all migrations have run.
var CurrentSchemaVersion = len(migrations)

// Init opens (creating if needed) the journal at baseDir/journal.db and
// brings its schema up to date. Tests pass t.TempDir() as baseDir.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	path := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := setup(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0600)
	return db, nil
}

func setup(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("read journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("journal: expected WAL mode, got %s", mode)
	}

	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	for v := version; v < len(migrations); v++ {
		if _, err := db.Exec(migrations[v]); err != nil {
			return fmt.Errorf("journal migration %d: %w", v+1, err)
		}
		if err := SetUserVersion(db, v+1); err != nil {
			return err
		}
	}
	return nil
}

// GetUserVersion reads the schema version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion writes the schema version pragma.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}
