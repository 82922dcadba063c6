package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/homepage/internal/site"
)

// DefaultRenderOut is where hp render writes the page.
const DefaultRenderOut = "index.html"

var (
	renderConfig   string
	renderTemplate string
	renderOut      string
	renderWatch    bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderConfig, "config", "", "Site configuration directory, base URL, or .json/.toml document")
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "Page template (default built-in)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", DefaultRenderOut, "Output file, or - for stdout")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "Re-render whenever configuration or template files change")
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the homepage from site configuration",
	Long: `Render the homepage into a static HTML file.

Configuration is either a set of documents (site.yml, news.yml,
projects.yml, publications.bib) in a directory or under a base URL, or a
single .json or .toml document holding every section.

When the configuration cannot be loaded the page shows a single error
message and hp exits with status 1.

Examples:
  hp render --config ./config
  hp render --config https://example.org/config --out -
  hp render --config site.toml --watch`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	location := firstSet(renderConfig, cfg.SiteSource)
	tmplPath := firstSet(renderTemplate, cfg.TemplatePath)
	loader := mustNewLoader(location)

	ctx := cmd.Context()
	if err := renderPage(ctx, loader, tmplPath, renderOut); err != nil {
		if !renderWatch {
			exitWithError(ExitError, "%v", err)
		}
		logger.WithError(err).Error("render failed")
	} else if !renderWatch && renderOut != "-" {
		if humanOutput {
			outputHuman("Rendered %s\n", renderOut)
		} else {
			outputJSON(StatusResponse{Status: "rendered", Path: renderOut})
		}
	}

	if !renderWatch {
		return nil
	}

	paths := []string{location}
	if tmplPath != "" {
		paths = append(paths, tmplPath)
	}
	var ignore []string
	if renderOut != "-" {
		ignore = append(ignore, renderOut)
	}
	logger.WithField("config", location).Info("watching for changes, press Ctrl+C to stop")
	err := site.Watch(ctx, paths, ignore, site.DefaultDebounce, logger, func() {
		if err := renderPage(ctx, loader, tmplPath, renderOut); err != nil {
			logger.WithError(err).Error("render failed")
			return
		}
		logger.WithField("out", renderOut).Info("page rebuilt")
	})
	if err != nil {
		exitWithError(ExitError, "watching %s: %v", location, err)
	}
	return nil
}

// renderPage builds the page and writes it to out. The page is written even
// when configuration loading failed, since it then carries the error message.
func renderPage(ctx context.Context, loader site.Loader, tmplPath, out string) error {
	tmpl, err := readTemplate(tmplPath)
	if err != nil {
		return err
	}

	page, loadErr := site.BuildPage(ctx, loader, tmpl, time.Now(), logger)
	if page == "" {
		return loadErr
	}

	if out == "-" {
		_, err = fmt.Fprintln(os.Stdout, page)
	} else {
		err = os.WriteFile(out, []byte(page), 0644)
	}
	if err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	if loadErr != nil {
		return fmt.Errorf("loading site configuration: %w", loadErr)
	}
	return nil
}

// readTemplate reads a page template; an empty path selects the built-in one.
func readTemplate(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return data, nil
}

// mustNewLoader builds the configuration loader for location, exits on error.
func mustNewLoader(location string) site.Loader {
	loader, err := site.NewLoader(location, site.WithLogger(logger))
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return loader
}
