// Package export writes ledgers out as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"budget/internal/core"
)

// CSVWriter writes entries to CSV format.
type CSVWriter struct {
	// IncludeTotal appends a trailing row with the formatted total.
	IncludeTotal bool
}

// WriteToFile writes entries to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, entries []core.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	if err := w.Write(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes entries in CSV format to out. Amounts are written as stored.
func (w *CSVWriter) Write(out io.Writer, entries []core.Entry) error {
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"Date", "Description", "Type", "Amount"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, e := range entries {
		row := []string{safeCell(e.Date), safeCell(e.Description), safeCell(string(e.Type)), safeAmount(e.Amount)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	if w.IncludeTotal {
		sum := core.Summarize(entries)
		if err := writer.Write([]string{"", "Total", "", sum.Display}); err != nil {
			return fmt.Errorf("write CSV total: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// safeCell prefixes text a spreadsheet would evaluate as a formula with a
// single quote.
func safeCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// safeAmount keeps numeric amounts such as "-4" as they are.
func safeAmount(a core.Amount) string {
	if _, err := a.Decimal(); err == nil {
		return string(a)
	}
	return safeCell(string(a))
}
