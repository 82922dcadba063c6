package publication

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TSVHeader is the first line of the tab-separated report.
const TSVHeader = "title\tauthors\tvenue\tyear\tcitedBy\turl"

// WriteTSV writes the tab-separated report: a header line, then one line per
// publication. Zero years and citation counts print as empty columns.
func WriteTSV(w io.Writer, pubs []Publication) error {
	return WriteTSVWithProgress(w, pubs, 0, nil)
}

// WriteTSVWithProgress is WriteTSV, calling progress with the record index
// before writing every record whose index is a multiple of every, starting
// with the first. A nil progress or non-positive every disables it.
func WriteTSVWithProgress(w io.Writer, pubs []Publication, every int, progress func(int)) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, TSVHeader); err != nil {
		return err
	}
	for i, p := range pubs {
		if progress != nil && every > 0 && i%every == 0 {
			progress(i)
		}
		cols := []string{
			p.Title,
			p.Authors,
			p.Venue,
			blankZero(p.Year),
			blankZero(p.CitedBy),
			p.URL,
		}
		if _, err := fmt.Fprintln(bw, strings.Join(cols, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func blankZero(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// MarshalReport encodes publications as a two-space indented JSON array.
// An empty or nil slice encodes as [].
func MarshalReport(pubs []Publication) ([]byte, error) {
	if pubs == nil {
		pubs = []Publication{}
	}
	data, err := json.MarshalIndent(pubs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding publications: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSONFiles writes the same JSON report to the primary and backup paths.
// An empty backup path skips the second write.
func WriteJSONFiles(pubs []Publication, primary, backup string) error {
	data, err := MarshalReport(pubs)
	if err != nil {
		return err
	}

	if err := os.WriteFile(primary, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", primary, err)
	}
	if backup == "" {
		return nil
	}
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", backup, err)
	}

	return nil
}
