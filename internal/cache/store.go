// Package cache implements the content-addressed result store: values
// are keyed by the SHA-256 digest of the input file bytes, so identical
// content always maps to the same entry regardless of path or filename.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mvirta/bodycomp-go/internal/errors"
)

// Store is a digest-keyed key/value store backed by a directory, with an
// in-memory front for repeated lookups within one process. Entries are
// never invalidated: a content digest cannot go stale.
type Store struct {
	dir string
	mem *gocache.Cache
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string, memTTL time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("creating cache directory %s: %w", dir, err)).
			Category(errors.CategoryCache).
			Context("dir", dir).
			Build()
	}
	if memTTL <= 0 {
		memTTL = time.Hour
	}
	return &Store{
		dir: dir,
		mem: gocache.New(memTTL, 2*memTTL),
	}, nil
}

// FileDigest returns the SHA-256 hex digest of the file content at path.
// The digest is a pure function of the bytes, never of the path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.New(fmt.Errorf("opening %s for digest: %w", path, err)).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.New(fmt.Errorf("hashing %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+"_results.json")
}

// EntryPath returns the on-disk location of a key's entry, whether or
// not it exists yet.
func (s *Store) EntryPath(key string) string {
	return s.entryPath(key)
}

// Has reports whether an entry exists for the key.
func (s *Store) Has(key string) bool {
	if _, ok := s.mem.Get(key); ok {
		return true
	}
	_, err := os.Stat(s.entryPath(key))
	return err == nil
}

// Get returns the stored bytes for the key. The second return is false
// on a miss.
func (s *Store) Get(key string) ([]byte, bool, error) {
	if v, ok := s.mem.Get(key); ok {
		return v.([]byte), true, nil
	}
	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.New(fmt.Errorf("reading cache entry %s: %w", key, err)).
			Category(errors.CategoryCache).
			Context("key", key).
			Build()
	}
	s.mem.Set(key, data, gocache.DefaultExpiration)
	return data, true, nil
}

// Put stores bytes under the key, writing to a temporary file first and
// renaming it into place so a crash never leaves a partial entry.
// Concurrent writers for the same digest produce identical bytes, so the
// rename is idempotent and no locking is needed.
func (s *Store) Put(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return errors.New(fmt.Errorf("creating temp cache file: %w", err)).
			Category(errors.CategoryCache).
			Context("key", key).
			Build()
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.New(fmt.Errorf("writing temp cache file: %w", err)).
			Category(errors.CategoryCache).
			Context("key", key).
			Build()
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.entryPath(key)); err != nil {
		return errors.New(fmt.Errorf("publishing cache entry %s: %w", key, err)).
			Category(errors.CategoryCache).
			Context("key", key).
			Build()
	}
	s.mem.Set(key, data, gocache.DefaultExpiration)
	return nil
}
