package dataset

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tiggercwh/go-semantle/embedding"
	"github.com/tiggercwh/go-semantle/hints"
	"github.com/tiggercwh/go-semantle/logging"
	"github.com/tiggercwh/go-semantle/scoring"
)

// ErrDatasetUnavailable wraps every load failure. A failed load never
// yields a partial Corpus.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

const (
	HintsFile        = "hints.db"
	SimilaritiesFile = "hint_similarities.db"
	SecretsFile      = "secret_words.txt"
)

type Options struct {
	// Compression is config.CompressionNone or config.CompressionZstd.
	Compression string
	// TempDir holds staged database files during the load.
	TempDir string
	Logger  *logging.Logger
}

func (o Options) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.NewDiscardLogger()
	}
	return o.Logger
}

// Corpus is the loaded, read-only game data.
type Corpus struct {
	Vectors *embedding.Store
	Hints   *hints.Table
	Secrets []string
}

func (c *Corpus) Engine() *scoring.Engine {
	return scoring.NewEngine(c.Vectors, c.Hints)
}

// PickSecret draws a secret word at random.
func (c *Corpus) PickSecret() string {
	return c.Secrets[rand.Intn(len(c.Secrets))]
}

// Load fetches every shard, both hint tables and the secret word list
// concurrently and builds the Corpus. onProgress may be nil.
func Load(ctx context.Context, src Source, opts Options, onProgress ProgressFunc) (*Corpus, error) {
	start := time.Now()
	corpus, err := load(ctx, src, opts, onProgress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	opts.logger().Info("dataset loaded",
		"words", corpus.Vectors.Len(),
		"secrets", len(corpus.Secrets),
		"elapsed", time.Since(start),
	)
	return corpus, nil
}

// LoadVectors fetches only the embedding shards.
func LoadVectors(ctx context.Context, src Source, opts Options, onProgress ProgressFunc) (*embedding.Store, error) {
	dir, err := os.MkdirTemp(opts.TempDir, "semantle-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	defer os.RemoveAll(dir)

	f := &fetcher{src: src, dir: dir, compression: opts.Compression, progress: NewProgress(onProgress)}
	store := embedding.NewStore()

	g, gctx := errgroup.WithContext(ctx)
	loadShards(gctx, g, f, store, opts.logger())
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	if err := store.Freeze(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return store, nil
}

func load(ctx context.Context, src Source, opts Options, onProgress ProgressFunc) (*Corpus, error) {
	logger := opts.logger()

	dir, err := os.MkdirTemp(opts.TempDir, "semantle-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	f := &fetcher{src: src, dir: dir, compression: opts.Compression, progress: NewProgress(onProgress)}
	store := embedding.NewStore()
	table := hints.NewTable()
	var secrets []string

	g, gctx := errgroup.WithContext(ctx)
	loadShards(gctx, g, f, store, logger)
	g.Go(func() error {
		return f.withDB(gctx, HintsFile, func(db *sql.DB) error {
			return table.ReadHints(gctx, db)
		})
	})
	g.Go(func() error {
		return f.withDB(gctx, SimilaritiesFile, func(db *sql.DB) error {
			return table.ReadSimilarities(gctx, db)
		})
	})
	g.Go(func() error {
		local, err := f.fetch(gctx, SecretsFile)
		if err != nil {
			return err
		}
		file, err := os.Open(local)
		if err != nil {
			return err
		}
		defer file.Close()
		secrets, err = ParseSecrets(file)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := store.Freeze(); err != nil {
		return nil, err
	}
	table.Freeze()

	for _, secret := range secrets {
		if !table.Complete(secret) {
			return nil, fmt.Errorf("secret %q has no hint data", secret)
		}
		if _, err := store.Lookup(secret); err != nil {
			return nil, fmt.Errorf("secret %q: %w", secret, err)
		}
	}

	return &Corpus{Vectors: store, Hints: table, Secrets: secrets}, nil
}

func loadShards(ctx context.Context, g *errgroup.Group, f *fetcher, store *embedding.Store, logger *logging.Logger) {
	for _, shard := range embedding.Shards {
		g.Go(func() error {
			return f.withDB(ctx, shard.FileName(), func(db *sql.DB) error {
				vectors, err := embedding.ReadShard(ctx, db, shard)
				if err != nil {
					return err
				}
				logger.Debug("shard loaded", "shard", shard.Name, "words", len(vectors))
				return store.Add(shard, vectors)
			})
		})
	}
}

// ParseSecrets reads a newline-delimited word list, skipping blank lines.
func ParseSecrets(r io.Reader) ([]string, error) {
	var secrets []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if word := strings.TrimSpace(scanner.Text()); word != "" {
			secrets = append(secrets, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read secret words: %w", err)
	}
	if len(secrets) == 0 {
		return nil, errors.New("secret word list is empty")
	}
	return secrets, nil
}
