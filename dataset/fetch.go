package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/tiggercwh/go-semantle/config"
)

// fetcher stages dataset files from a Source into a local directory,
// reporting transferred bytes to a shared Progress.
type fetcher struct {
	src         Source
	dir         string
	compression string
	progress    *Progress
}

// fetch downloads name into the staging directory and returns its local
// path. With zstd compression the databases are fetched as name+".zst";
// progress counts compressed bytes as they arrive.
func (f *fetcher) fetch(ctx context.Context, name string) (string, error) {
	remote := name
	compressed := f.compression == config.CompressionZstd && strings.HasSuffix(name, ".db")
	if compressed {
		remote += ".zst"
	}

	rc, size, err := f.src.Open(ctx, remote)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", remote, err)
	}
	defer rc.Close()

	if size >= 0 {
		f.progress.Expect(size)
	}
	var r io.Reader = &progressReader{r: contextReader{ctx: ctx, r: rc}, p: f.progress, sized: size >= 0}
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("decompress %s: %w", remote, err)
		}
		defer dec.Close()
		r = dec
	}

	local := filepath.Join(f.dir, name)
	out, err := os.Create(local)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", fmt.Errorf("download %s: %w", remote, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return local, nil
}

// withDB fetches a sqlite database and hands it to fn.
func (f *fetcher) withDB(ctx context.Context, name string, fn func(*sql.DB) error) error {
	local, err := f.fetch(ctx, name)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", local)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer db.Close()

	if err := fn(db); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// contextReader stops a copy once ctx is done, so a failed sibling fetch
// cancels the others.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
