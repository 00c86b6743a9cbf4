// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deep research HTTP API",
	Long: `Serve exposes POST /deep-research and POST /search, the report archive
under /reports, /personas, /health and Prometheus metrics on /metrics.

In production mode (--production, server.production, or
environment: production) error responses omit stack traces.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default from config: localhost)")
	serveCmd.Flags().Int("port", 0, "listen port (default from config: 8080)")
	serveCmd.Flags().Bool("production", false, "hide stack traces in error responses")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.production", serveCmd.Flags().Lookup("production"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	st, err := buildStack(cfg, true)
	if err != nil {
		return err
	}
	defer st.Close()

	var store server.ReportStore
	if st.store != nil {
		store = st.store
	}
	srv := server.NewServer(st.pipeline, st.searcher, store, cfg.Server, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(ctx)
}
