package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/homepage/internal/archive"
	"github.com/matsen/homepage/internal/config"
	"github.com/matsen/homepage/internal/publication"
)

var (
	historyArchive string
	historyLimit   int
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyArchive, "archive", "", "SQLite archive path (default from config)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", DefaultHistoryLimit, "Number of runs to list (0 for all)")
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List archived scrape runs or show one run",
	Long: `List the scrape runs recorded with hp scrape --archive, newest first.
With a run id, show the publications stored for that run.

Examples:
  hp history --human
  hp history 5f0c6f9e-2d7b-4c1e-9a57-0d1c5f3e8b21`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

// HistoryRunResponse is the JSON response for a single archived run.
type HistoryRunResponse struct {
	Run          archive.Run               `json:"run"`
	Publications []publication.Publication `json:"publications"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := firstSet(historyArchive, cfg.ArchivePath)
	if path == "" {
		exitWithError(ExitConfigError, "no archive configured\n\nPass --archive or set archive_path in %s", config.Path())
	}

	db, err := archive.Open(path)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	if len(args) == 1 {
		showRun(db, args[0])
		return nil
	}

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		exitWithError(ExitError, "listing runs: %v", err)
	}

	if !humanOutput {
		outputJSON(runs)
		return nil
	}
	if len(runs) == 0 {
		outputHuman("No archived runs in %s\n", path)
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-14s %4d publications\n",
			r.ID, r.ScrapedAt.Local().Format("2006-01-02 15:04"), r.ProfileID, r.Count)
	}
	return nil
}

func showRun(db *archive.DB, id string) {
	run, pubs, err := db.GetRun(id)
	if err != nil {
		if errors.Is(err, archive.ErrRunNotFound) {
			exitWithError(ExitError, "run not found: %s", id)
		}
		exitWithError(ExitError, "reading run: %v", err)
	}

	if !humanOutput {
		outputJSON(HistoryRunResponse{Run: *run, Publications: pubs})
		return
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("Profile:  %s\n", run.ProfileID)
	fmt.Printf("Scraped:  %s\n", run.ScrapedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Count:    %d\n\n", run.Count)
	for i, p := range pubs {
		fmt.Printf("%3d. %s\n", i+1, truncateString(p.Title, ListTitleMaxLen))
		if line := formatList([]string{p.Authors, p.Venue}); line != "" {
			fmt.Printf("     %s\n", truncateString(line, ListTitleMaxLen))
		}
		if p.CitedBy > 0 {
			fmt.Printf("     cited by %d\n", p.CitedBy)
		}
	}
}
