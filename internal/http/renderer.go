package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"

	"budget/internal/core"
	"budget/internal/ledger"
)

// LedgerTemplate is the partial holding the entry table and the total.
const LedgerTemplate = "ledger.html"

// PageTemplate is the full page that embeds LedgerTemplate.
const PageTemplate = "index.html"

// HTMLRenderer is a ledger.Renderer backed by html/template. Its mount
// point is the name of the template the ledger is drawn into.
type HTMLRenderer struct {
	templates *template.Template

	mu      sync.Mutex
	mounted string
	view    ledger.View
}

// ParseTemplates parses the templates in fsys matching pattern.
func ParseTemplates(fsys fs.FS, pattern string) (*template.Template, error) {
	t, err := template.ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func NewHTMLRenderer(t *template.Template) *HTMLRenderer {
	return &HTMLRenderer{templates: t, view: ledger.View{Summary: core.Summarize(nil)}}
}

func (h *HTMLRenderer) Mount(name string) error {
	if h.templates == nil || h.templates.Lookup(name) == nil {
		return fmt.Errorf("template %q not defined", name)
	}
	h.mu.Lock()
	h.mounted = name
	h.mu.Unlock()
	return nil
}

func (h *HTMLRenderer) Render(v ledger.View) {
	h.mu.Lock()
	h.view = v
	h.mu.Unlock()
}

// Mounted reports whether Mount has succeeded.
func (h *HTMLRenderer) Mounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mounted != ""
}

// WriteLedger draws the last rendered view into the mounted template.
func (h *HTMLRenderer) WriteLedger(w io.Writer) error {
	h.mu.Lock()
	name, v := h.mounted, h.view
	h.mu.Unlock()
	if name == "" {
		return fmt.Errorf("renderer not mounted")
	}
	return h.execute(w, name, v)
}

// WritePage draws the full page around the last rendered view.
func (h *HTMLRenderer) WritePage(w io.Writer) error {
	h.mu.Lock()
	v := h.view
	h.mu.Unlock()
	return h.execute(w, PageTemplate, v)
}

// execute buffers the output so a failing template never sends half a page.
func (h *HTMLRenderer) execute(w io.Writer, name string, v ledger.View) error {
	if h.templates == nil {
		return fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, newPageData(v)); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

type rowData struct {
	Ref         uint64
	Position    int
	Date        string
	Description string
	Type        string
	Amount      string
}

type pageData struct {
	Rows     []rowData
	Types    []core.EntryType
	Total    string
	Negative bool
}

func newPageData(v ledger.View) pageData {
	data := pageData{
		Types:    []core.EntryType{core.Income, core.Expense},
		Total:    v.Summary.Display,
		Negative: v.Summary.Negative,
	}
	for i, r := range v.Rows {
		data.Rows = append(data.Rows, rowData{
			Ref:         uint64(r.Ref),
			Position:    i + 1,
			Date:        r.Entry.Date,
			Description: r.Entry.Description,
			Type:        string(r.Entry.Type),
			Amount:      string(r.Entry.Amount),
		})
	}
	return data
}
