package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/faust/cache"
)

func TestQueryMissThenHit(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	id := cache.HashBytes([]byte("process = _;"))

	dir, writer := c.Query(id)
	assert.Empty(t, dir)
	require.NotNil(t, writer)

	final, err := writer.Materialize(func(dir string) error {
		return os.WriteFile(filepath.Join(dir, "unit.bin"), []byte("artifact"), 0o644)
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root(), id.String()), final)

	dir, writer = c.Query(id)
	assert.Nil(t, writer)
	assert.Equal(t, final, dir)
	content, err := os.ReadFile(filepath.Join(dir, "unit.bin"))
	require.NoError(t, err)
	assert.Equal(t, "artifact", string(content))
}

func TestMaterializeError(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	id := cache.HashBytes([]byte("x"))

	_, writer := c.Query(id)
	require.NotNil(t, writer)
	fail := errors.New("compiler crashed")
	_, err = writer.Materialize(func(string) error { return fail })
	assert.ErrorIs(t, err, fail)

	// A failed producer leaves neither the entry nor temp litter.
	entries, err := os.ReadDir(c.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, writer = c.Query(id)
	assert.NotNil(t, writer)
}

func TestConcurrentWriters(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	id := cache.HashBytes([]byte("shared source"))

	const writers = 8
	finals := make([]string, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			dir, writer := c.Query(id)
			if writer == nil {
				finals[i] = dir
				return
			}
			final, err := writer.Materialize(func(dir string) error {
				// Deterministic producers write identical bytes.
				return os.WriteFile(filepath.Join(dir, "unit.bin"), []byte("same"), 0o644)
			})
			assert.NoError(t, err)
			finals[i] = final
		}(i)
	}
	wg.Wait()

	expected := filepath.Join(c.Root(), id.String())
	for _, final := range finals {
		assert.Equal(t, expected, final)
	}

	// Exactly one entry survives and no temp folder leaks.
	entries, err := os.ReadDir(c.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id.String(), entries[0].Name())
	content, err := os.ReadFile(filepath.Join(expected, "unit.bin"))
	require.NoError(t, err)
	assert.Equal(t, "same", string(content))
}

func TestHash(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "unit.dsp")
	extra := filepath.Join(dir, "lib.dsp")
	require.NoError(t, os.WriteFile(script, []byte("process = _;"), 0o644))
	require.NoError(t, os.WriteFile(extra, []byte("import lib;"), 0o644))

	id1, err := cache.Hash(script)
	require.NoError(t, err)
	id2, err := cache.Hash(script)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	withAux, err := cache.Hash(script, extra)
	require.NoError(t, err)
	assert.NotEqual(t, id1, withAux)

	// Order-sensitive: aux inputs are positional.
	swapped, err := cache.Hash(extra, script)
	require.NoError(t, err)
	assert.NotEqual(t, withAux, swapped)

	_, err = cache.Hash(filepath.Join(dir, "missing.dsp"))
	assert.Error(t, err)
}

func TestHashBytes(t *testing.T) {
	a := cache.HashBytes([]byte("a"), []byte("b"))
	assert.Equal(t, a, cache.HashBytes([]byte("a"), []byte("b")))
	assert.NotEqual(t, a, cache.HashBytes([]byte("b"), []byte("a")))
	assert.Len(t, a.String(), 40)
	assert.Equal(t, strings.ToLower(a.String()), a.String())
}

func TestNewBadRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err := cache.New(filepath.Join(file, "cache"))
	assert.Error(t, err)
}
