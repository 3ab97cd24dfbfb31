package hints

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Both tables are wide: one row per secret, one column per neighbour, with
// columns in ascending similarity order (column 1 holds rank Size).

const (
	selectHints        = `SELECT * FROM hints`
	selectSimilarities = `SELECT * FROM similarities`
)

// ReadHints loads every row of the hints table into t.
func (t *Table) ReadHints(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, selectHints)
	if err != nil {
		return fmt.Errorf("query hints: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) != Size+1 {
		return fmt.Errorf("%w: hints table has %d columns, want %d", ErrMalformed, len(cols), Size+1)
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan hints: %w", err)
		}
		secret := values[0].String
		list := make(List, Size)
		for col := 1; col <= Size; col++ {
			if !values[col].Valid {
				return fmt.Errorf("%w: secret %q has an empty hint column %d", ErrMalformed, secret, col)
			}
			list[Size-col] = values[col].String
		}
		if err := t.AddHints(secret, list); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ReadSimilarities loads the similarities table into t as summaries. Cells
// may be REAL or 4-byte little-endian float32 blobs.
func (t *Table) ReadSimilarities(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, selectSimilarities)
	if err != nil {
		return fmt.Errorf("query similarities: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) != Size+1 {
		return fmt.Errorf("%w: similarities table has %d columns, want %d", ErrMalformed, len(cols), Size+1)
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan similarities: %w", err)
		}
		secret, err := textValue(values[0])
		if err != nil {
			return err
		}
		similarities := make([]float64, Size)
		for col := 1; col <= Size; col++ {
			sim, err := similarityValue(values[col])
			if err != nil {
				return fmt.Errorf("secret %q, column %d: %w", secret, col, err)
			}
			similarities[Size-col] = sim
		}
		summary, err := NewSummary(similarities)
		if err != nil {
			return err
		}
		if err := t.AddSummary(secret, summary); err != nil {
			return err
		}
	}
	return rows.Err()
}

func textValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return "", fmt.Errorf("%w: secret column holds %T", ErrMalformed, v)
	}
}

func similarityValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case []byte:
		if len(x) != 4 {
			return 0, fmt.Errorf("%w: similarity blob is %d bytes", ErrMalformed, len(x))
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(x))), nil
	default:
		return 0, fmt.Errorf("%w: similarity cell holds %T", ErrMalformed, v)
	}
}

// Entry is one secret's neighbours in rank order, as produced by Builder.
type Entry struct {
	Secret    string
	Neighbors []Neighbor
}

// WriteTables replaces the contents of the hints table in hintsDB and of the
// similarities table in simDB.
func WriteTables(ctx context.Context, hintsDB, simDB *sql.DB, entries []Entry) error {
	hintCols := make([]string, Size)
	simCols := make([]string, Size)
	for i := range Size {
		hintCols[i] = fmt.Sprintf("hint_%d TEXT", i+1)
		simCols[i] = fmt.Sprintf("similarity_%d REAL", i+1)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", Size+1), ", ")

	hintsTx, err := prepareTable(ctx, hintsDB, "hints", hintCols)
	if err != nil {
		return err
	}
	defer hintsTx.Rollback()

	simTx, err := prepareTable(ctx, simDB, "similarities", simCols)
	if err != nil {
		return err
	}
	defer simTx.Rollback()

	insertHints := "INSERT INTO hints VALUES (" + placeholders + ")"
	insertSims := "INSERT INTO similarities VALUES (" + placeholders + ")"

	for _, entry := range entries {
		if len(entry.Neighbors) != Size {
			return fmt.Errorf("%w: secret %q has %d neighbours, want %d", ErrMalformed, entry.Secret, len(entry.Neighbors), Size)
		}
		hintArgs := make([]any, 0, Size+1)
		simArgs := make([]any, 0, Size+1)
		hintArgs = append(hintArgs, entry.Secret)
		simArgs = append(simArgs, entry.Secret)
		for i := Size - 1; i >= 0; i-- {
			hintArgs = append(hintArgs, entry.Neighbors[i].Word)
			simArgs = append(simArgs, float64(entry.Neighbors[i].Similarity))
		}
		if _, err := hintsTx.ExecContext(ctx, insertHints, hintArgs...); err != nil {
			return fmt.Errorf("insert hints for %q: %w", entry.Secret, err)
		}
		if _, err := simTx.ExecContext(ctx, insertSims, simArgs...); err != nil {
			return fmt.Errorf("insert similarities for %q: %w", entry.Secret, err)
		}
	}

	if err := hintsTx.Commit(); err != nil {
		return err
	}
	return simTx.Commit()
}

func prepareTable(ctx context.Context, db *sql.DB, table string, cols []string) (*sql.Tx, error) {
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (secret TEXT PRIMARY KEY, %s)", table, strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("create %s table: %w", table, err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("clear %s table: %w", table, err)
	}
	return tx, nil
}
