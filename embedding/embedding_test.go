package embedding

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testVector(seed float32) Vector {
	vec := make(Vector, Dimension)
	for i := range vec {
		vec[i] = seed + float32(i)/100
	}
	return vec
}

func TestDecodeVector(t *testing.T) {
	vec := testVector(-1.5)

	blob, err := EncodeVector(vec)
	require.NoError(t, err)
	require.Len(t, blob, Dimension*4)

	// index 0 is -1.5 = 0xbfc00000, little-endian
	assert.Equal(t, []byte{0x00, 0x00, 0xc0, 0xbf}, blob[:4])

	decoded, err := DecodeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestDecodeVectorRejectsWrongSize(t *testing.T) {
	_, err := DecodeVector(make([]byte, 12))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = EncodeVector(make(Vector, 3))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestShardFor(t *testing.T) {
	tests := []struct {
		word  string
		shard string
		ok    bool
	}{
		{"apple", "a-c", true},
		{"cat", "a-c", true},
		{"dog", "d-h", true},
		{"hat", "d-h", true},
		{"ocean", "i-o", true},
		{"queen", "p-r", true},
		{"sea", "s-z", true},
		{"zebra", "s-z", true},
		{"Ocean", "", false},
		{"éclair", "", false},
		{"1st", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			shard, ok := ShardFor(tt.word)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.shard, shard.Name)
		})
	}
}

func TestShardFileName(t *testing.T) {
	assert.Equal(t, "word2vec_i-o.db", Shards[2].FileName())
}

func loadAll(t *testing.T, s *Store, vectors map[string]Vector) {
	t.Helper()
	for _, shard := range Shards {
		part := make(map[string]Vector)
		for word, vec := range vectors {
			if shard.Contains(word) {
				part[word] = vec
			}
		}
		require.NoError(t, s.Add(shard, part))
	}
}

func TestStoreLookup(t *testing.T) {
	s := NewStore()
	loadAll(t, s, map[string]Vector{
		"ocean": testVector(1),
		"sea":   testVector(2),
	})

	_, err := s.Lookup("ocean")
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, s.Freeze())

	vec, err := s.Lookup("ocean")
	require.NoError(t, err)
	assert.Equal(t, testVector(1), vec)

	_, err = s.Lookup("xqzzy")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Lookup("Ocean")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"ocean", "sea"}, s.Words())
}

func TestStoreRejectsIncompleteOrLateLoads(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(Shards[0], map[string]Vector{"cat": testVector(0)}))
	assert.Error(t, s.Freeze())

	assert.Error(t, s.Add(Shards[0], nil), "shard loaded twice")
	assert.ErrorIs(t, s.Add(Shards[1], map[string]Vector{"zoo": testVector(0)}), ErrMalformed)

	for _, shard := range Shards[1:] {
		require.NoError(t, s.Add(shard, nil))
	}
	require.NoError(t, s.Freeze())
	assert.Error(t, s.Add(Shards[0], nil))
}

func TestReadWriteShard(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "word2vec_s-z.db"))
	require.NoError(t, err)
	defer db.Close()

	shard, _ := ShardFor("sea")
	require.NoError(t, WriteShard(ctx, db, map[string]Vector{
		"sea":   testVector(3),
		"zebra": testVector(4),
		"apple": testVector(5),
	}))

	vectors, err := ReadShard(ctx, db, shard)
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, testVector(3), vectors["sea"])
	assert.NotContains(t, vectors, "apple")
}

func TestReadShardMalformedBlob(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "bad.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, createShardTable)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insertVector, "sea", []byte{1, 2, 3})
	require.NoError(t, err)

	_, err = ReadShard(ctx, db, Shards[4])
	assert.ErrorIs(t, err, ErrMalformed)
}
