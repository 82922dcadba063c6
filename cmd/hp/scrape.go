package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matsen/homepage/internal/archive"
	"github.com/matsen/homepage/internal/publication"
	"github.com/matsen/homepage/internal/scholar"
)

// progressEvery is how many report lines pass between progress messages.
const progressEvery = 37

var (
	scrapeOut      string
	scrapeBackup   string
	scrapeArchive  string
	scrapeMaxPages int
	scrapeDelay    time.Duration
)

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "Primary JSON output path (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeBackup, "backup", "", "Backup JSON output path (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeArchive, "archive", "", "SQLite archive to record this run in")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", scholar.DefaultMaxPages, "Last listing page index to fetch")
	scrapeCmd.Flags().DurationVar(&scrapeDelay, "delay", scholar.DefaultDelay, "Minimum pause between page fetches")
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [profile]",
	Short: "Scrape a Google Scholar profile",
	Long: `Scrape every publication listed on a Google Scholar profile.

The profile is a bare id or any URL fragment containing user=<id>. Without
one, the configured profile_id is used, then a built-in default.

Results are deduplicated by title and year, sorted by title length, written
to the primary and backup JSON files and printed as a tab-separated report.
Exits with status 42 when nothing was found.

Examples:
  hp scrape VjJtYv4AAAAJ
  hp scrape 'https://scholar.google.com/citations?user=VjJtYv4AAAAJ&hl=en'
  hp scrape --archive ~/.local/share/hp/archive.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

// scrapeOptions holds everything a scrape needs once flags and config are
// merged.
type scrapeOptions struct {
	OutPath     string
	BackupPath  string
	ArchivePath string // Empty disables archiving
	MaxPages    int
	Delay       time.Duration
	Policy      scholar.RetryPolicy
	ListingBase string    // Empty uses scholar.BaseURL
	Report      io.Writer // Receives the tab-separated report
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	arg := cfg.ProfileID
	if len(args) == 1 {
		arg = args[0]
	}

	policy := scholar.DefaultRetryPolicy
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}

	code, err := scrape(cmd.Context(), scholar.ParseProfileID(arg), scrapeOptions{
		OutPath:     firstSet(scrapeOut, cfg.OutputPath),
		BackupPath:  firstSet(scrapeBackup, cfg.BackupPath),
		ArchivePath: firstSet(scrapeArchive, cfg.ArchivePath),
		MaxPages:    scrapeMaxPages,
		Delay:       scrapeDelay,
		Policy:      policy,
		Report:      os.Stdout,
	})
	if err != nil {
		exitWithError(code, "%v", err)
	}
	if code != ExitSuccess {
		os.Exit(code)
	}
	return nil
}

// scrape runs the whole pipeline for one profile and returns the process
// exit code. Both JSON files are written before an empty result is reported
// as ExitNoResults.
func scrape(ctx context.Context, profileID string, opts scrapeOptions) (int, error) {
	logger.WithField("profile", profileID).Infof(
		"Scraping Google Scholar for user: %s This may violate TOS; proceed at your own risk.", profileID)

	client := scholar.NewClient(scholar.WithRetryPolicy(opts.Policy), scholar.WithLogger(logger))
	pagerOpts := []scholar.PaginatorOption{
		scholar.WithMaxPages(opts.MaxPages),
		scholar.WithDelay(opts.Delay),
		scholar.WithPaginatorLogger(logger),
	}
	if opts.ListingBase != "" {
		pagerOpts = append(pagerOpts, scholar.WithListingBase(opts.ListingBase))
	}
	pager := scholar.NewPaginator(client, pagerOpts...)

	start := time.Now()
	raw, err := pager.Paginate(ctx, profileID)
	if err != nil {
		return ExitError, fmt.Errorf("scrape interrupted after %d rows: %w", len(raw), err)
	}

	pubs := publication.Finalize(raw)
	if err := publication.WriteJSONFiles(pubs, opts.OutPath, opts.BackupPath); err != nil {
		return ExitError, fmt.Errorf("writing results: %w", err)
	}

	if opts.ArchivePath != "" {
		recordRun(opts.ArchivePath, profileID, pubs, start)
	}

	err = publication.WriteTSVWithProgress(opts.Report, pubs, progressEvery, func(i int) {
		logger.Infof("...still going... (%d)", i)
	})
	if err != nil {
		return ExitError, fmt.Errorf("writing report: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"rows":         len(raw),
		"publications": len(pubs),
		"output":       opts.OutPath,
		"duration":     time.Since(start).Round(time.Millisecond),
	}).Info("scrape finished")

	if len(pubs) == 0 {
		logger.Warn("no publications found")
		return ExitNoResults, nil
	}
	return ExitSuccess, nil
}

// recordRun stores the run in the archive. Failures are logged, never fatal.
func recordRun(path, profileID string, pubs []publication.Publication, at time.Time) {
	db, err := archive.Open(path)
	if err != nil {
		logger.WithError(err).WithField("archive", path).Warn("cannot open scrape archive")
		return
	}
	defer db.Close()

	id, err := db.RecordRun(profileID, pubs, at)
	if err != nil {
		logger.WithError(err).WithField("archive", path).Warn("cannot record scrape run")
		return
	}
	logger.WithFields(logrus.Fields{"archive": path, "run": id}).Info("scrape run archived")
}
