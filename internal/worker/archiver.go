// Package worker turns ledger notifications into durable CSV snapshots.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"budget/internal/core"
	"budget/internal/events"
	"budget/internal/export"
	"budget/internal/log"
)

// Archiver writes one CSV snapshot per ledger saved message.
type Archiver struct {
	dir    string
	writer *export.CSVWriter
	logger *log.Logger
}

func NewArchiver(dir string) *Archiver {
	return &Archiver{
		dir:    dir,
		writer: &export.CSVWriter{IncludeTotal: true},
		logger: log.Default(log.ComponentWorker),
	}
}

// HandleLedgerSaved writes the snapshot carried by msg. A payload that is
// not a ledger is logged and dropped so the broker does not redeliver it.
func (a *Archiver) HandleLedgerSaved(ctx context.Context, msg *events.LedgerSavedMessage) error {
	entries, err := core.DecodeEntries(msg.Payload)
	if err != nil {
		a.logger.ErrorContext(ctx, "Dropping unreadable ledger snapshot",
			log.NewFields().WithOperation(log.OpArchive).WithError(err).ToSlice()...)
		return nil
	}

	dir := filepath.Join(a.dir, safeName(msg.Key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	path := filepath.Join(dir, snapshotName(msg))
	if err := a.writer.WriteToFile(path, entries); err != nil {
		return fmt.Errorf("archive snapshot: %w", err)
	}

	a.logger.InfoContext(ctx, "Archived ledger snapshot",
		log.NewFields().WithOperation(log.OpArchive).WithLedger(msg.Key, len(entries), core.FormatUSD(msg.Total)).ToSlice()...)
	return nil
}

// Latest returns the path of the newest snapshot for key.
func (a *Archiver) Latest(key string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(a.dir, safeName(key), "*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", errors.New("no snapshots")
	}
	// names start with a sortable timestamp
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}
	return latest, nil
}

func snapshotName(msg *events.LedgerSavedMessage) string {
	id := msg.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s.csv", msg.Timestamp.UTC().Format("20060102T150405.000000000"), safeName(id))
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
