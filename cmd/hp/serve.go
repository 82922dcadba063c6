package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/homepage/internal/site"
)

// DefaultServeAddr is the listen address for hp serve.
const DefaultServeAddr = "127.0.0.1:8080"

const shutdownTimeout = 5 * time.Second

var (
	serveAddr     string
	serveConfig   string
	serveTemplate string
	serveStatic   string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", DefaultServeAddr, "Listen address")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Site configuration directory, base URL, or .json/.toml document")
	serveCmd.Flags().StringVar(&serveTemplate, "template", "", "Page template (default built-in)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "Directory of static assets served alongside the page")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the homepage over HTTP",
	Long: `Serve the homepage, loading configuration again on every page view so
edits show up on reload.

Examples:
  hp serve --config ./config --static ./public
  hp serve --addr :8000 --config site.json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	location := firstSet(serveConfig, cfg.SiteSource)
	loader := mustNewLoader(location)

	tmpl, err := readTemplate(firstSet(serveTemplate, cfg.TemplatePath))
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           site.NewServer(loader, tmpl, serveStatic, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	logger.WithField("addr", serveAddr).WithField("config", location).Info("serving homepage")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			exitWithError(ExitError, "serving: %v", err)
		}
	case <-cmd.Context().Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			exitWithError(ExitError, "shutting down: %v", err)
		}
		logger.Info("server stopped")
	}
	return nil
}
