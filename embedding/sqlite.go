package embedding

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

const (
	createShardTable = `CREATE TABLE IF NOT EXISTS word2vec (word TEXT PRIMARY KEY, vec BLOB)`
	selectShard      = `SELECT word, vec FROM word2vec`
	insertVector     = `INSERT INTO word2vec VALUES (?, ?)`
)

// ReadShard reads every vector of a shard database. Rows whose word falls
// outside the shard's range are skipped: ShardFor would never route a lookup
// to them.
func ReadShard(ctx context.Context, db *sql.DB, shard Shard) (map[string]Vector, error) {
	rows, err := db.QueryContext(ctx, selectShard)
	if err != nil {
		return nil, fmt.Errorf("query shard %s: %w", shard.Name, err)
	}
	defer rows.Close()

	vectors := make(map[string]Vector)
	for rows.Next() {
		var (
			word string
			blob []byte
		)
		if err := rows.Scan(&word, &blob); err != nil {
			return nil, fmt.Errorf("scan shard %s: %w", shard.Name, err)
		}
		if !shard.Contains(word) {
			continue
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("shard %s, word %q: %w", shard.Name, word, err)
		}
		vectors[word] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read shard %s: %w", shard.Name, err)
	}
	return vectors, nil
}

// WriteShard creates the word2vec table in db and inserts the given vectors.
func WriteShard(ctx context.Context, db *sql.DB, vectors map[string]Vector) error {
	if _, err := db.ExecContext(ctx, createShardTable); err != nil {
		return fmt.Errorf("create shard table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertVector)
	if err != nil {
		return err
	}
	defer stmt.Close()

	words := make([]string, 0, len(vectors))
	for word := range vectors {
		words = append(words, word)
	}
	sort.Strings(words)

	for _, word := range words {
		blob, err := EncodeVector(vectors[word])
		if err != nil {
			return fmt.Errorf("word %q: %w", word, err)
		}
		if _, err := stmt.ExecContext(ctx, word, blob); err != nil {
			return fmt.Errorf("insert %q: %w", word, err)
		}
	}
	return tx.Commit()
}
