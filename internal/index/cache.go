package index

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// HashCache is an embedded-KV accelerant over FileRecords, keyed purely by
// content hash (not path), so a file that was parsed once is never
// reparsed again even if it gets renamed or moved elsewhere in the tree.
// It is a cache, not a source of truth: state.json (internal/store)
// remains the authoritative artifact per §6; HashCache only shortcuts the
// "parse" step in Build when state.json's own prior-by-path lookup misses.
type HashCache struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenHashCache opens (creating if absent) a badger database rooted at dir.
func OpenHashCache(dir string, logger *slog.Logger) (*HashCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir).WithLogger(nopLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open hash cache at %s: %w", dir, err)
	}
	return &HashCache{db: db, logger: logger}, nil
}

// Close releases the underlying badger handles.
func (c *HashCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached FileRecord for hash, if any.
func (c *HashCache) Get(hash string) (FileRecord, bool) {
	if c == nil || c.db == nil {
		return FileRecord{}, false
	}
	var rec FileRecord
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		c.logger.Warn("hash cache read failed", "hash", hash, "error", err)
		return FileRecord{}, false
	}
	if !found || !rec.wellFormed() {
		return FileRecord{}, false
	}
	return rec, true
}

// Put stores rec under hash, overwriting any prior entry.
func (c *HashCache) Put(hash string, rec FileRecord) {
	if c == nil || c.db == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("hash cache encode failed", "hash", hash, "error", err)
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hash), data)
	})
	if err != nil {
		c.logger.Warn("hash cache write failed", "hash", hash, "error", err)
	}
}

// nopLogger satisfies badger's logger interface with silence; badger
// is noisy at Info level by default and this engine has its own slog
// logging for anything worth surfacing.
type nopLogger struct{}

func (nopLogger) Errorf(string, ...interface{})   {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Debugf(string, ...interface{})   {}

var _ io.Closer = (*HashCache)(nil)
