// Package dataset fetches the static game data and assembles it into a
// read-only Corpus.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tiggercwh/go-semantle/config"
)

// ErrNotFound is returned by a Source for a missing file.
var ErrNotFound = errors.New("dataset file not found")

// Source opens dataset files by name. The returned size is -1 when the
// source cannot tell it up front.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
}

// NewSource builds the Source selected by cfg.Provider.
func NewSource(ctx context.Context, cfg *config.DatasetConfig, timeout time.Duration) (Source, error) {
	switch cfg.Provider {
	case config.ProviderDir:
		return NewDirSource(cfg.Location), nil
	case config.ProviderHTTP:
		return NewHTTPSource(cfg.Location, &http.Client{Timeout: timeout}), nil
	case config.ProviderS3:
		return NewS3Source(ctx, cfg)
	case config.ProviderMinio:
		return NewMinioSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported dataset provider: %s", cfg.Provider)
	}
}
