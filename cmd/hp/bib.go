package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/homepage/internal/bibtex"
)

func init() {
	rootCmd.AddCommand(bibCmd)
}

var bibCmd = &cobra.Command{
	Use:   "bib <file.bib>",
	Short: "Show the publications parsed from a BibTeX file",
	Long: `Parse a BibTeX file the way the homepage renderer does and print the
entries. Useful for checking what publications.bib will look like.

Example:
  hp bib config/publications.bib --human`,
	Args: cobra.ExactArgs(1),
	RunE: runBib,
}

func runBib(cmd *cobra.Command, args []string) error {
	entries, err := bibtex.ParseFile(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		outputJSON(entries)
		return nil
	}

	for i, e := range entries {
		printEntry(i+1, e)
	}
	outputHuman("%d entries\n", len(entries))
	return nil
}

func printEntry(n int, e bibtex.Entry) {
	fmt.Printf("%d. %s (%s)\n", n, truncateString(e.Title, DetailTitleMaxLen), firstSet(e.Year, "no year"))
	if len(e.Authors) > 0 {
		fmt.Printf("   %s\n", strings.Join(e.Authors, ", "))
	}
	if e.Venue != "" {
		fmt.Printf("   %s\n", e.Venue)
	}
	for _, l := range e.Links {
		fmt.Printf("   [%s] %s\n", l.Label, l.URL)
	}
	fmt.Println()
}
