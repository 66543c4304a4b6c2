// Package cache stores metadata about chunks the compiler has already
// produced, keyed by the SHA-256 of their source text, so a REPL or
// repeated "wisp run" can report what was last compiled without
// recompiling just to inspect it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wisplang/wisp/internal/chunk"
)

// Entry is one cached compilation record. It deliberately does not
// carry the raw bytecode: recompiling from source is cheap, and Chunk
// defines no serialization format, so the cache only needs to answer
// "was this compiled, and what did it look like."
type Entry struct {
	Hash        string
	RunID       string
	Source      string
	Constants   int
	Disassembly string
	CompiledAt  string
}

// Backend is the storage contract a cache implementation must satisfy.
// A Get miss is reported as (Entry{}, false, nil), not an error.
type Backend interface {
	Put(Entry) error
	Get(hash string) (Entry, bool, error)
	List() ([]Entry, error)
	Clear() error
	Close() error
}

// Cache wraps a Backend with the hashing and entry-construction logic
// shared by every backend, plus a per-process run ID.
type Cache struct {
	backend Backend
	runID   string
}

// New wraps backend with a fresh per-process run ID.
func New(backend Backend) *Cache {
	return &Cache{backend: backend, runID: uuid.New().String()}
}

// Hash returns the content-addressed key for source.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Record stores c's disassembly and constant count under source's
// hash. A storage failure is logged and swallowed — a cache miss
// never fails a compile or run.
func (ca *Cache) Record(source string, c *chunk.Chunk, compiledAt string) {
	entry := Entry{
		Hash:        Hash(source),
		RunID:       ca.runID,
		Source:      source,
		Constants:   len(c.Constants),
		Disassembly: c.Disassemble("script"),
		CompiledAt:  compiledAt,
	}
	if err := ca.backend.Put(entry); err != nil {
		logrus.WithError(err).Warn("cache: failed to record compiled chunk")
	}
}

// Lookup returns the cached entry for source, if one exists. A
// storage failure is treated the same as a miss, after logging.
func (ca *Cache) Lookup(source string) (Entry, bool) {
	entry, ok, err := ca.backend.Get(Hash(source))
	if err != nil {
		logrus.WithError(err).Warn("cache: failed to look up compiled chunk")
		return Entry{}, false
	}
	return entry, ok
}

// List returns every cached entry, for "wisp cache ls".
func (ca *Cache) List() ([]Entry, error) {
	return ca.backend.List()
}

// Clear empties the cache, for "wisp cache clear".
func (ca *Cache) Clear() error {
	return ca.backend.Clear()
}

// Close releases the backend's resources.
func (ca *Cache) Close() error {
	return ca.backend.Close()
}

// RunID is this Cache's per-process identifier.
func (ca *Cache) RunID() string {
	return ca.runID
}
