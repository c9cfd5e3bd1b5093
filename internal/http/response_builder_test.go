package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budget/internal/core"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML([]byte("<p>ok</p>")).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHTMXResponseBuilder_LedgerChanged(t *testing.T) {
	w := httptest.NewRecorder()
	sum := core.Summarize([]core.Entry{{Type: core.Expense, Amount: "20"}})

	NewHTMXResponse().TriggerLedgerChanged(sum).Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"ledger:changed"`, `"total":"-$20.00"`, `"negative":true`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_NoTriggerHeaderWhenEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("X-Custom", "value").Write(w)

	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header missing")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("bad <input>"), http.StatusBadRequest},
		{"not found", NotFoundError("bad <input>"), http.StatusNotFound},
		{"internal", InternalServerError("bad <input>"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("code = %d, want %d", w.Code, tt.code)
			}
			if !strings.Contains(w.Body.String(), "bad &lt;input&gt;") {
				t.Errorf("message not escaped: %s", w.Body.String())
			}
		})
	}
}
