// Package cache memoizes results of deterministic computations on disk,
// addressed by a digest of the inputs that produced them.
//
// Entries are immutable once fully written and the existence of the final
// digest-named folder is the sole hit signal. Concurrent uncoordinated
// writers are safe without any cross-process lock: every producer for one
// id is assumed deterministic and writes byte-identical contents, so
// first and last writer are interchangeable. Atomicity relies only on the
// filesystem rename being atomic within one volume.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// ID addresses one cache entry. It is a pure function of the computation
// inputs.
type ID [sha1.Size]byte

// String returns the lowercase-hex digest naming the entry's folder.
func (id ID) String() string { return hex.EncodeToString(id[:]) }

// Hash digests the contents of the given files, order-sensitive. The
// first path is the primary input, the rest are auxiliary inputs.
func Hash(primary string, aux ...string) (ID, error) {
	h := sha1.New()
	for _, p := range append([]string{primary}, aux...) {
		f, err := os.Open(p)
		if err != nil {
			return ID{}, fmt.Errorf("hashing cache input: %w", err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return ID{}, fmt.Errorf("hashing cache input %v: %w", p, err)
		}
	}
	var id ID
	h.Sum(id[:0])
	return id, nil
}

// HashBytes digests in-memory inputs, order-sensitive.
func HashBytes(inputs ...[]byte) ID {
	h := sha1.New()
	for _, in := range inputs {
		h.Write(in)
	}
	var id ID
	h.Sum(id[:0])
	return id
}

// Cache is a folder of immutable entries. Light to copy.
type Cache struct {
	root string
}

// New opens a cache rooted at dir, creating the folder if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root: %w", err)
	}
	return &Cache{root: dir}, nil
}

// Root returns the cache root folder.
func (c *Cache) Root() string { return c.root }

// Query checks for an entry. On a hit it returns the entry's folder and a
// nil Writer; on a miss it returns a Writer for materializing the entry.
// Temp folders left by in-flight writers are never reported as hits.
func (c *Cache) Query(id ID) (string, *Writer) {
	final := filepath.Join(c.root, id.String())
	if _, err := os.Stat(final); err == nil {
		return final, nil
	}
	return "", &Writer{
		temp:  filepath.Join(c.root, "tmp-"+id.String()+"-"+xid.New().String()),
		final: final,
	}
}

// Writer materializes one missing entry without taking any lock. The
// artifact is produced in a uniquely suffixed temp folder which is then
// renamed to the final destination; if the destination appeared in the
// meantime the temp copy is discarded instead.
type Writer struct {
	temp  string
	final string
}

// Materialize creates the temp folder, calls fn to produce the artifact
// in it and publishes the result, returning the final folder. Filesystem
// faults are returned as errors and must abort the surrounding operation:
// the cache never silently falls back to recompiling, as that would mask
// persistent storage problems.
func (w *Writer) Materialize(fn func(dir string) error) (string, error) {
	if err := os.MkdirAll(w.temp, 0o755); err != nil {
		return "", fmt.Errorf("creating cache temp folder: %w", err)
	}
	if err := fn(w.temp); err != nil {
		os.RemoveAll(w.temp)
		return "", err
	}
	if _, err := os.Stat(w.final); err == nil {
		// Another writer finished first. Same inputs, same bytes: its
		// entry is as good as ours.
		if err := os.RemoveAll(w.temp); err != nil {
			return "", fmt.Errorf("discarding cache temp folder: %w", err)
		}
		return w.final, nil
	}
	if err := os.Rename(w.temp, w.final); err != nil {
		if _, statErr := os.Stat(w.final); statErr == nil {
			// Lost the publish race after the existence check.
			os.RemoveAll(w.temp)
			return w.final, nil
		}
		return "", fmt.Errorf("publishing cache entry: %w", err)
	}
	return w.final, nil
}
