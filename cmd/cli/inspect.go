package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/akeren/waitlist-intake/pkg/csvstore"
)

func writeSummary(w io.Writer, summary *csvstore.Summary) error {
	if !summary.Exists {
		_, err := fmt.Fprintf(w, "%s: no file yet (header is written on the first submission)\n", summary.Path)
		return err
	}

	header := "missing"
	switch {
	case summary.HeaderValid:
		header = "ok"
	case len(summary.Header) > 0:
		header = "unexpected: " + strings.Join(summary.Header, ",")
	}

	_, err := fmt.Fprintf(w, "%s\n  header:    %s\n  entries:   %d\n  malformed: %d\n",
		summary.Path, header, summary.RowCount(), summary.Malformed)
	return err
}
