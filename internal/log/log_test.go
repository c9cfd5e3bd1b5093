package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentLedger,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})

	logger.Info("saved", FieldEntries, 3)
	logger.WithComponent(ComponentStorage).Warn("slow write")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "entries=3") {
		t.Fatalf("missing ledger attrs: %s", out)
	}
	if !strings.Contains(out, "component=storage") {
		t.Fatalf("missing storage component: %s", out)
	}
	if strings.Count(out, "component=") != 2 {
		t.Fatalf("component must appear once per record: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	logger := Discard().WithComponent(ComponentHTTP)
	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("expected http logger in context, got %+v", got)
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger outside requests")
	}
}

func TestFieldsToSliceSkipsComponent(t *testing.T) {
	fields := NewFields().WithComponent(ComponentLedger).WithOperation(OpSave).WithRow(4, "amount")
	slice := fields.ToSlice()
	if len(slice) != 6 {
		t.Fatalf("expected 3 pairs, got %v", slice)
	}
	for i := 0; i < len(slice); i += 2 {
		if slice[i] == FieldComponent {
			t.Fatalf("component must come from the logger, got %v", slice)
		}
	}
}
