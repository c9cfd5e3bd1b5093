// Package ledger owns the ordered sequence of entry rows, keeps the Store
// in step with it and recomputes the running total after every change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// DefaultStorageKey is the slot the ledger is persisted under.
const DefaultStorageKey = "expense-tracker-entries"

var (
	ErrMountNotFound = errors.New("mount point not found")
	ErrRowNotFound   = errors.New("row not found")
)

type (
	// RowRef identifies a rendered row for the lifetime of the process.
	// It is never persisted; storage order is the only identity on disk.
	RowRef uint64

	Row struct {
		Ref   RowRef
		Entry core.Entry
	}

	// View is what a Renderer projects.
	View struct {
		Rows    []Row
		Summary core.Summary
	}

	// Renderer turns the ledger into something visible. Mount locates the
	// surface identified by selector; Render replaces its content. Render
	// runs while the ledger is locked and must not call back into it.
	Renderer interface {
		Mount(selector string) error
		Render(v View)
	}

	Option func(*Ledger)
)

// Ledger is safe for concurrent use. Every operation holds one lock for its
// whole duration, so handlers never interleave.
type Ledger struct {
	mu           sync.Mutex
	store        store.Store
	renderer     Renderer
	key          string
	now          func() time.Time
	logger       *log.Logger
	persistOnAdd bool

	rows    []Row
	nextRef RowRef
	summary core.Summary
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

// WithClock sets the clock used for the default date of new entries.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

// WithPersistOnAdd controls whether AddEntry saves immediately (the
// default). When disabled a new row only reaches the Store on the next
// edit, delete or explicit Save.
func WithPersistOnAdd(persist bool) Option {
	return func(l *Ledger) { l.persistOnAdd = persist }
}

// New returns an empty ledger. A nil renderer discards all output.
func New(s store.Store, r Renderer, opts ...Option) *Ledger {
	if r == nil {
		r = Discard
	}
	l := &Ledger{
		store:        s,
		renderer:     r,
		key:          DefaultStorageKey,
		now:          time.Now,
		logger:       log.Default(log.ComponentLedger),
		persistOnAdd: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.summary = core.Summarize(nil)
	return l
}

// Key returns the storage key.
func (l *Ledger) Key() string {
	return l.key
}

// Initialize mounts the renderer and loads the stored ledger. A missing
// mount point is a configuration error and is returned wrapping
// ErrMountNotFound.
func (l *Ledger) Initialize(ctx context.Context, selector string) error {
	if err := l.renderer.Mount(selector); err != nil {
		return fmt.Errorf("mount %q: %w: %w", selector, ErrMountNotFound, err)
	}
	return l.Load(ctx)
}

// Load replaces the rows with the stored ledger. An absent or empty slot
// is an empty ledger. Stored values are not validated; each field is only
// defaulted when unset.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	blob, _, err := l.store.Get(ctx, l.key)
	if err != nil {
		return fmt.Errorf("load ledger %q: %w", l.key, err)
	}
	entries, err := core.DecodeEntries(blob)
	if err != nil {
		return fmt.Errorf("load ledger %q: %w", l.key, err)
	}

	l.rows = l.rows[:0]
	for _, e := range entries {
		l.appendRow(e)
	}
	l.recompute(ctx)
	l.logger.InfoContext(ctx, "Ledger loaded",
		log.NewFields().WithOperation(log.OpLoad).WithLedger(l.key, len(l.rows), l.summary.Display).ToSlice()...)
	return nil
}

// AddEntry appends a row built from e with every unset field defaulted
// and returns its handle, or 0 when the save fails.
func (l *Ledger) AddEntry(ctx context.Context, e core.Entry) (RowRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.snapshot()
	ref := l.appendRow(e)
	l.logger.DebugContext(ctx, "Entry added", log.NewFields().WithOperation(log.OpAdd).WithRow(uint64(ref), "").ToSlice()...)
	if l.persistOnAdd {
		if err := l.save(ctx); err != nil {
			l.rows = prev
			return 0, err
		}
		return ref, nil
	}
	l.recompute(ctx)
	return ref, nil
}

// UpdateField is the change event of one field: it stores the edited value
// and saves the whole ledger.
//
// AddEntry, UpdateField and DeleteEntry leave the rows untouched when the
// save fails, so memory, the rendered view and the Store stay equal.
func (l *Ledger) UpdateField(ctx context.Context, ref RowRef, field core.Field, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(ref)
	if i < 0 {
		return fmt.Errorf("update row %d: %w", ref, ErrRowNotFound)
	}
	prev := l.rows[i].Entry
	if err := l.rows[i].Entry.Set(field, value); err != nil {
		return fmt.Errorf("update row %d: %w", ref, err)
	}
	l.logger.DebugContext(ctx, "Entry field changed",
		log.NewFields().WithOperation(log.OpUpdate).WithRow(uint64(ref), string(field)).ToSlice()...)
	if err := l.save(ctx); err != nil {
		l.rows[i].Entry = prev
		return err
	}
	return nil
}

// DeleteEntry removes the row and saves the remainder. Deleting a row that
// is already gone removes nothing but still saves.
func (l *Ledger) DeleteEntry(ctx context.Context, ref RowRef) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.snapshot()
	if i := l.indexOf(ref); i >= 0 {
		l.rows = append(l.rows[:i:i], l.rows[i+1:]...)
		l.logger.DebugContext(ctx, "Entry deleted", log.NewFields().WithOperation(log.OpDelete).WithRow(uint64(ref), "").ToSlice()...)
	}
	if err := l.save(ctx); err != nil {
		l.rows = prev
		return err
	}
	l.recompute(ctx)
	return nil
}

// Save writes every row, in display order, over the stored ledger and
// recomputes the summary.
func (l *Ledger) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx)
}

// RecomputeSummary recomputes the total from the current rows and renders.
func (l *Ledger) RecomputeSummary(ctx context.Context) core.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute(ctx)
	return l.summary
}

// Summary returns the last computed summary.
func (l *Ledger) Summary() core.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// Rows returns a copy of the rows in display order.
func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Row(nil), l.rows...)
}

// Entries returns a copy of the entries in display order.
func (l *Ledger) Entries() []core.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries()
}

// View returns the rows and summary together.
func (l *Ledger) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view()
}

func (l *Ledger) appendRow(e core.Entry) RowRef {
	l.nextRef++
	l.rows = append(l.rows, Row{Ref: l.nextRef, Entry: e.WithDefaults(l.now())})
	return l.nextRef
}

func (l *Ledger) snapshot() []Row {
	return append([]Row(nil), l.rows...)
}

func (l *Ledger) indexOf(ref RowRef) int {
	for i, r := range l.rows {
		if r.Ref == ref {
			return i
		}
	}
	return -1
}

func (l *Ledger) entries() []core.Entry {
	out := make([]core.Entry, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.Entry
	}
	return out
}

func (l *Ledger) view() View {
	return View{Rows: append([]Row(nil), l.rows...), Summary: l.summary}
}

func (l *Ledger) save(ctx context.Context) error {
	blob, err := core.EncodeEntries(l.entries())
	if err != nil {
		return fmt.Errorf("save ledger %q: %w", l.key, err)
	}
	if err := l.store.Set(ctx, l.key, blob); err != nil {
		l.logger.ErrorContext(ctx, "Ledger save failed",
			log.NewFields().WithOperation(log.OpSave).WithError(err).ToSlice()...)
		return fmt.Errorf("save ledger %q: %w", l.key, err)
	}
	l.recompute(ctx)
	l.logger.DebugContext(ctx, "Ledger saved",
		log.NewFields().WithOperation(log.OpSave).WithLedger(l.key, len(l.rows), l.summary.Display).ToSlice()...)
	return nil
}

func (l *Ledger) recompute(ctx context.Context) {
	l.summary = core.Summarize(l.entries())
	for _, i := range l.summary.Malformed {
		l.logger.WarnContext(ctx, "Amount is not a number, counted as zero",
			log.FieldRow, uint64(l.rows[i].Ref),
			log.FieldAmount, string(l.rows[i].Entry.Amount))
	}
	l.renderer.Render(l.view())
}

type discard struct{}

func (discard) Mount(string) error { return nil }
func (discard) Render(View)        {}

// Discard mounts anywhere and renders nothing.
var Discard Renderer = discard{}
