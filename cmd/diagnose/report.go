package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	fetchUC "news-digest/internal/usecase/fetch"
)

func broken(ds []fetchUC.Diagnostic) int {
	n := 0
	for _, d := range ds {
		if !d.Healthy() {
			n++
		}
	}
	return n
}

func writeJSON(w io.Writer, ds []fetchUC.Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

func writeText(w io.Writer, ds []fetchUC.Diagnostic, now time.Time) error {
	bad := broken(ds)
	fmt.Fprintln(w, "RSS Feed Diagnostic Report")
	fmt.Fprintf(w, "Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(w, "Working: %d  Broken: %d  Total: %d\n\n", len(ds)-bad, bad, len(ds))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tITEMS\tLATENCY\tLATEST\tDETAIL")
	for _, d := range ds {
		detail := d.Error
		if d.HTTPCode != 0 {
			detail = fmt.Sprintf("HTTP %d", d.HTTPCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			d.Name, d.Status, d.ItemCount, d.Latency.Round(time.Millisecond), d.LatestDate, detail)
	}
	return tw.Flush()
}
