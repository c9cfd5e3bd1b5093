package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/events"
	"budget/internal/log"
)

func newTestArchiver(t *testing.T) *Archiver {
	t.Helper()
	a := NewArchiver(t.TempDir())
	a.logger = log.Discard()
	return a
}

func TestHandleLedgerSavedWritesSnapshot(t *testing.T) {
	a := newTestArchiver(t)
	msg := &events.LedgerSavedMessage{
		ID:        "0f3c2b1a-aaaa-bbbb-cccc-1234567890ab",
		Key:       "expense-tracker-entries",
		Entries:   1,
		Total:     decimal.RequireFromString("-20"),
		Payload:   `[{"date":"2025-01-01","description":"lunch","type":"expense","amount":"20.00"}]`,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := a.HandleLedgerSaved(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerSaved: %v", err)
	}

	path, err := a.Latest(msg.Key)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !strings.HasSuffix(path, "-0f3c2b1a.csv") {
		t.Errorf("unexpected snapshot name %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.Contains(string(b), "2025-01-01,lunch,expense,20.00") || !strings.Contains(string(b), "-$20.00") {
		t.Errorf("unexpected snapshot content %q", b)
	}
}

func TestLatestPicksNewest(t *testing.T) {
	a := newTestArchiver(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, payload := range []string{`[]`, `[{"amount":"1"}]`} {
		msg := &events.LedgerSavedMessage{ID: "id", Key: "k", Payload: payload, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if err := a.HandleLedgerSaved(context.Background(), msg); err != nil {
			t.Fatalf("HandleLedgerSaved: %v", err)
		}
	}
	path, err := a.Latest("k")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "20250101T000100") {
		t.Errorf("Latest = %q, want the second snapshot", path)
	}
}

func TestHandleLedgerSavedDropsBadPayload(t *testing.T) {
	a := newTestArchiver(t)
	msg := &events.LedgerSavedMessage{ID: "x", Key: "k", Payload: `{"oops":true}`, Timestamp: time.Now()}
	if err := a.HandleLedgerSaved(context.Background(), msg); err != nil {
		t.Fatalf("bad payload should be dropped, got %v", err)
	}
	if _, err := a.Latest("k"); err == nil {
		t.Fatal("no snapshot should have been written")
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"expense-tracker-entries": "expense-tracker-entries",
		"../etc/passwd":           "___etc_passwd",
		"":                        "_",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
