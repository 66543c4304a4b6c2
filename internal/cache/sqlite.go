package cache

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ncruces/go-strftime"
)

// SQLiteBackend is the default local Backend: a single-table sqlite
// database under the cache directory, matching the teacher's own
// database/sql + modernc.org/sqlite pairing.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the chunk cache database at
// <dir>/chunks.db.
func OpenSQLite(dir string) (*SQLiteBackend, error) {
	path := filepath.Join(dir, "chunks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening sqlite database: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	hash TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	source TEXT NOT NULL,
	constants INTEGER NOT NULL,
	disassembly TEXT NOT NULL,
	compiled_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Now formats the current instant the way the cache's "compiled_at"
// column is written, mirroring a REPL history log timestamp.
func Now(t time.Time) string {
	return strftime.Format("%Y-%m-%d %H:%M:%S", t)
}

func (b *SQLiteBackend) Put(e Entry) error {
	_, err := b.db.Exec(
		`INSERT INTO chunks (hash, run_id, source, constants, disassembly, compiled_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET
		   run_id = excluded.run_id,
		   source = excluded.source,
		   constants = excluded.constants,
		   disassembly = excluded.disassembly,
		   compiled_at = excluded.compiled_at`,
		e.Hash, e.RunID, e.Source, e.Constants, e.Disassembly, e.CompiledAt,
	)
	if err != nil {
		return fmt.Errorf("cache: inserting entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Get(hash string) (Entry, bool, error) {
	row := b.db.QueryRow(
		`SELECT hash, run_id, source, constants, disassembly, compiled_at
		 FROM chunks WHERE hash = ?`, hash,
	)
	var e Entry
	if err := row.Scan(&e.Hash, &e.RunID, &e.Source, &e.Constants, &e.Disassembly, &e.CompiledAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: querying entry: %w", err)
	}
	return e, true, nil
}

func (b *SQLiteBackend) List() ([]Entry, error) {
	rows, err := b.db.Query(
		`SELECT hash, run_id, source, constants, disassembly, compiled_at
		 FROM chunks ORDER BY compiled_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("cache: listing entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.RunID, &e.Source, &e.Constants, &e.Disassembly, &e.CompiledAt); err != nil {
			return nil, fmt.Errorf("cache: scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (b *SQLiteBackend) Clear() error {
	if _, err := b.db.Exec(`DELETE FROM chunks`); err != nil {
		return fmt.Errorf("cache: clearing entries: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
