package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/erazemk/premiki/internal/model"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a report bound. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, model.Validationf("invalid timestamp %q", s)
}

var csvHeader = []string{"from_location", "to_location", "item", "total_quantity"}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.FromLocation, r.ToLocation, r.Item, strconv.Itoa(r.TotalQuantity)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes the result as an aligned plain-text table.
func WriteTable(w io.Writer, r *Result) error {
	fmt.Fprintf(w, "Transfers from %s to %s\n\n",
		r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))

	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No completed transfers in range.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tITEM\tQUANTITY\t")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			row.FromLocation, row.ToLocation, row.Item, humanize.Comma(int64(row.TotalQuantity)))
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\t\n", humanize.Comma(int64(r.TotalQuantity())))
	return tw.Flush()
}
