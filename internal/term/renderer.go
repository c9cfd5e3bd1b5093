// Package term renders a ledger to the terminal as styled Markdown.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"budget/internal/ledger"
)

const (
	DefaultStyle = "dark"
	wordWrap     = 100
)

// Renderer is a ledger.Renderer whose mount point is a glamour style name.
// Render only records the view; Flush prints it.
type Renderer struct {
	mu   sync.Mutex
	tr   *glamour.TermRenderer
	view ledger.View
}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Mount selects the glamour style. An unknown style fails.
func (r *Renderer) Mount(style string) error {
	if style == "" {
		style = DefaultStyle
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.tr = tr
	r.mu.Unlock()
	return nil
}

func (r *Renderer) Render(v ledger.View) {
	r.mu.Lock()
	r.view = v
	r.mu.Unlock()
}

// Flush writes the last rendered view to out.
func (r *Renderer) Flush(out io.Writer) error {
	r.mu.Lock()
	tr, v := r.tr, r.view
	r.mu.Unlock()

	md := Markdown(v)
	if tr == nil {
		_, err := io.WriteString(out, md)
		return err
	}
	styled, err := tr.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(out, styled)
	return err
}

// Markdown lays out v as a table followed by the total. Rows are numbered
// from 1 in display order.
func Markdown(v ledger.View) string {
	var b strings.Builder
	b.WriteString("# Budget\n\n")

	if len(v.Rows) == 0 {
		b.WriteString("_No entries._\n\n")
	} else {
		b.WriteString("| # | Date | Description | Type | Amount |\n")
		b.WriteString("|--:|------|-------------|------|-------:|\n")
		for i, row := range v.Rows {
			e := row.Entry
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				i+1, cell(e.Date), cell(e.Description), cell(string(e.Type)), cell(string(e.Amount)))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Total:** %s", v.Summary.Display)
	if v.Summary.Negative {
		b.WriteString(" _(negative)_")
	}
	b.WriteString("\n")
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
