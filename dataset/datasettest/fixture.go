// Package datasettest writes small but complete datasets for tests.
package datasettest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tiggercwh/go-semantle/embedding"
	"github.com/tiggercwh/go-semantle/hints"
)

// WordsPerShard keeps every secret above the required neighbour count.
const WordsPerShard = 220

// Fixture describes a dataset written to Dir.
type Fixture struct {
	Dir       string
	Vectors   map[string]embedding.Vector
	Secrets   []string
	Neighbors map[string][]hints.Neighbor
}

type options struct {
	compressed bool
	secrets    int
	skip       string
}

type Option func(*options)

// Compressed stores every database as <name>.zst only.
func Compressed() Option {
	return func(o *options) { o.compressed = true }
}

// Secrets sets how many secret words get hint rows. The default is 2.
func Secrets(n int) Option {
	return func(o *options) { o.secrets = n }
}

// Without leaves the named file out of the dataset.
func Without(name string) Option {
	return func(o *options) { o.skip = name }
}

// Word returns the i-th generated word of a shard.
func Word(shard embedding.Shard, i int) string {
	return fmt.Sprintf("%c%04d", shard.First, i)
}

// Write generates a dataset under a temporary directory.
func Write(t testing.TB, opts ...Option) *Fixture {
	t.Helper()
	o := options{secrets: 2}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(7))
	f := &Fixture{
		Dir:       dir,
		Vectors:   make(map[string]embedding.Vector),
		Neighbors: make(map[string][]hints.Neighbor),
	}

	var vocabulary []string
	for _, shard := range embedding.Shards {
		vectors := make(map[string]embedding.Vector, WordsPerShard)
		for i := range WordsPerShard {
			word := Word(shard, i)
			vec := make(embedding.Vector, embedding.Dimension)
			for j := range vec {
				vec[j] = float32(rng.NormFloat64())
			}
			vectors[word] = vec
			f.Vectors[word] = vec
			vocabulary = append(vocabulary, word)
		}
		f.writeDB(t, shard.FileName(), o, func(db *sql.DB) error {
			return embedding.WriteShard(ctx, db, vectors)
		})
	}

	lookup := func(word string) (embedding.Vector, error) {
		return f.Vectors[word], nil
	}
	builder, err := hints.NewBuilder(lookup, vocabulary, nil)
	require.NoError(t, err)

	var entries []hints.Entry
	for i := range o.secrets {
		secret := Word(embedding.Shards[i%len(embedding.Shards)], i)
		neighbors, err := builder.Nearest(secret, f.Vectors[secret])
		require.NoError(t, err)
		f.Secrets = append(f.Secrets, secret)
		f.Neighbors[secret] = neighbors
		entries = append(entries, hints.Entry{Secret: secret, Neighbors: neighbors})
	}

	hintsDB := openDB(t, filepath.Join(dir, "hints.db"))
	simDB := openDB(t, filepath.Join(dir, "hint_similarities.db"))
	require.NoError(t, hints.WriteTables(ctx, hintsDB, simDB, entries))
	require.NoError(t, hintsDB.Close())
	require.NoError(t, simDB.Close())
	f.finish(t, "hints.db", o)
	f.finish(t, "hint_similarities.db", o)

	secrets := strings.Join(f.Secrets, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret_words.txt"), []byte(secrets), 0o644))
	f.finish(t, "secret_words.txt", o)

	return f
}

func (f *Fixture) writeDB(t testing.TB, name string, o options, fn func(*sql.DB) error) {
	t.Helper()
	db := openDB(t, filepath.Join(f.Dir, name))
	require.NoError(t, fn(db))
	require.NoError(t, db.Close())
	f.finish(t, name, o)
}

// finish applies compression and removal to a freshly written file.
func (f *Fixture) finish(t testing.TB, name string, o options) {
	t.Helper()
	path := filepath.Join(f.Dir, name)
	if name == o.skip {
		require.NoError(t, os.Remove(path))
		return
	}
	if !o.compressed || !strings.HasSuffix(name, ".db") {
		return
	}

	in, err := os.Open(path)
	require.NoError(t, err)
	out, err := os.Create(path + ".zst")
	require.NoError(t, err)
	enc, err := zstd.NewWriter(out)
	require.NoError(t, err)
	_, err = io.Copy(enc, in)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, out.Close())
	require.NoError(t, in.Close())
	require.NoError(t, os.Remove(path))
}

func openDB(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	return db
}
