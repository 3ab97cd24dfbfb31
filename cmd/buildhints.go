package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/embedding"
	"github.com/tiggercwh/go-semantle/hints"
	"github.com/tiggercwh/go-semantle/logging"
)

var (
	buildSecretsPath    string
	buildBannedPath     string
	buildVocabularyPath string
	buildOutDir         string
	buildWorkers        int
)

var buildHintsCmd = &cobra.Command{
	Use:   "build-hints",
	Short: "Compute the neighbour tables of the secret words",
	Long: `Compute the 1000 nearest neighbours of every secret word and write them
to hints.db and hint_similarities.db.

Vectors are read from the configured dataset. Neighbours are drawn from
--vocabulary when given, otherwise from every word in the shards, minus
the words listed in --banned.`,
	Args: cobra.NoArgs,
	RunE: runBuildHints,
}

func init() {
	rootCmd.AddCommand(buildHintsCmd)

	buildHintsCmd.Flags().StringVar(&buildSecretsPath, "secrets", "", "Secret word list, one per line")
	buildHintsCmd.Flags().StringVar(&buildBannedPath, "banned", "", "File of banned word digests")
	buildHintsCmd.Flags().StringVar(&buildVocabularyPath, "vocabulary", "", "Candidate neighbour words, one per line")
	buildHintsCmd.Flags().StringVarP(&buildOutDir, "out", "o", ".", "Output directory")
	buildHintsCmd.Flags().IntVarP(&buildWorkers, "workers", "w", runtime.NumCPU(), "Secrets processed concurrently")
	buildHintsCmd.MarkFlagRequired("secrets")
}

func runBuildHints(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}

	secrets, err := readWordFile(buildSecretsPath)
	if err != nil {
		return err
	}
	var vocabulary []string
	if buildVocabularyPath != "" {
		if vocabulary, err = readWordFile(buildVocabularyPath); err != nil {
			return err
		}
	}
	var banned hints.Banned
	if buildBannedPath != "" {
		f, err := os.Open(buildBannedPath)
		if err != nil {
			return err
		}
		banned, err = hints.ReadBanned(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	bar := newProgressBar(cmd.ErrOrStderr())
	store, err := dataset.LoadVectors(ctx, e.source, e.options(), bar.update)
	bar.finish()
	if err != nil {
		return err
	}

	return buildHints(ctx, e.logger, store, secrets, vocabulary, banned, buildOutDir, buildWorkers)
}

func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	words, err := dataset.ParseSecrets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// buildHints writes the neighbour tables of secrets into outDir. A nil
// vocabulary means every word in store.
func buildHints(ctx context.Context, logger *logging.Logger, store *embedding.Store, secrets, vocabulary []string, banned hints.Banned, outDir string, workers int) error {
	start := time.Now()
	if vocabulary == nil {
		vocabulary = store.Words()
	}
	builder, err := hints.NewBuilder(store.Lookup, vocabulary, banned)
	if err != nil {
		return err
	}
	logger.Info("building hints", "secrets", len(secrets), "candidates", builder.Candidates())

	entries := make([]hints.Entry, len(secrets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, secret := range secrets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := store.Lookup(secret)
			if err != nil {
				return fmt.Errorf("secret %q: %w", secret, err)
			}
			neighbors, err := builder.Nearest(secret, vec)
			if err != nil {
				return err
			}
			entries[i] = hints.Entry{Secret: secret, Neighbors: neighbors}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	hintsDB, err := sql.Open("sqlite", filepath.Join(outDir, dataset.HintsFile))
	if err != nil {
		return err
	}
	defer hintsDB.Close()
	simDB, err := sql.Open("sqlite", filepath.Join(outDir, dataset.SimilaritiesFile))
	if err != nil {
		return err
	}
	defer simDB.Close()

	if err := hints.WriteTables(ctx, hintsDB, simDB, entries); err != nil {
		return err
	}
	logger.Info("hints written", "dir", outDir, "elapsed", time.Since(start))
	return nil
}
