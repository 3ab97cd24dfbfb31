// Package cmd holds the semantle command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiggercwh/go-semantle/config"
	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/logging"
)

const progressBarWidth = 40

var rootCmd = &cobra.Command{
	Use:   "semantle",
	Short: "Semantle - guess the secret word by meaning",
	Long: `Semantle is a word game scored by word2vec similarity.

The dataset location is read from the environment (or a .env file), see
DATASET_PROVIDER and DATASET_LOCATION.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// env bundles what every command needs from the configuration.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	source dataset.Source
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.App.LogLevel)
	source, err := dataset.NewSource(ctx, &cfg.Dataset, time.Duration(cfg.App.HttpTimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, source: source}, nil
}

func (e *env) options() dataset.Options {
	return dataset.Options{
		Compression: e.cfg.Dataset.Compression,
		TempDir:     e.cfg.Dataset.TempDir,
		Logger:      e.logger,
	}
}

// loadCorpus loads the dataset, drawing a progress bar on w.
func (e *env) loadCorpus(ctx context.Context, w io.Writer) (*dataset.Corpus, error) {
	bar := newProgressBar(w)
	corpus, err := dataset.Load(ctx, e.source, e.options(), bar.update)
	bar.finish()
	return corpus, err
}

// progressBar draws a single-line download bar.
type progressBar struct {
	writer  io.Writer
	lastLen int
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{writer: w}
}

func (p *progressBar) update(completed, total int64) {
	fmt.Fprint(p.writer, p.render(completed, total))
}

func (p *progressBar) render(completed, total int64) string {
	filled := 0
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
		filled = int(completed * progressBarWidth / total)
	}
	filled = min(filled, progressBarWidth)

	line := fmt.Sprintf("\rLoading [%s%s] %5.1f%%  %d/%d bytes",
		strings.Repeat("=", filled), strings.Repeat(" ", progressBarWidth-filled),
		percent, completed, total)
	if p.lastLen > len(line) {
		line += strings.Repeat(" ", p.lastLen-len(line))
	}
	p.lastLen = len(line)
	return line
}

func (p *progressBar) finish() {
	fmt.Fprint(p.writer, "\r"+strings.Repeat(" ", p.lastLen)+"\r")
}
