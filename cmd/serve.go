package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	Long: `Run the HTTP game server.

The dataset loads in the background; game endpoints answer 503 until it is
ready and /api/ws/progress streams the download progress. A failed load
stops the server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	gameServer, err := server.NewGameServer(e.logger, e.cfg.Game.MaxSessions)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + e.cfg.App.ServerPort,
		Handler:           gameServer.Routes(),
		ReadHeaderTimeout: time.Duration(e.cfg.App.HttpTimeoutSeconds) * time.Second,
	}

	loadErr := make(chan error, 1)
	go func() {
		corpus, err := dataset.Load(ctx, e.source, e.options(), gameServer.SetProgress)
		if err != nil {
			gameServer.SetFailed(err)
			if ctx.Err() == nil {
				loadErr <- err
			}
			return
		}
		gameServer.SetReady(corpus)
	}()

	serveErr := make(chan error, 1)
	go func() {
		e.logger.Info("server starting", "addr", srv.Addr, "provider", e.cfg.Dataset.Provider)
		serveErr <- srv.ListenAndServe()
	}()

	var result error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-loadErr:
		e.logger.Error("dataset load failed", "error", err)
		result = fmt.Errorf("load dataset: %w", err)
	case <-ctx.Done():
		e.logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(result, err)
	}
	return result
}
