package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/store/memory"
	appweb "budget/web"
)

type testServer struct {
	srv    *Server
	ledger *ledger.Ledger
	store  *memory.Store
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	tmpl, err := ParseTemplates(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	r := NewHTMLRenderer(tmpl)
	s := memory.New()
	l := ledger.New(s, r,
		ledger.WithLogger(log.Discard()),
		ledger.WithClock(func() time.Time { return time.Date(2025, 5, 6, 8, 0, 0, 0, time.UTC) }))
	if err := l.Initialize(context.Background(), LedgerTemplate); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	srv := NewServer(":0", l, r, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, ledger: l, store: s}
}

func (ts *testServer) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("index status=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="budget"`, "New Entry", "$0.00", "htmx.org"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestUnknownPathIs404(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.do(t, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestAddEditDeleteFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/entries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `value="2025-05-06"`) {
		t.Error("new row should show today's date")
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "ledger:changed") {
		t.Error("missing ledger:changed trigger")
	}
	ref := ts.ledger.Rows()[0].Ref
	path := "/entries/" + itoa(ref)

	rec = ts.do(t, http.MethodPost, path, url.Values{"field": {"amount"}, "value": {"20"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="total red"`) || !strings.Contains(rec.Body.String(), "-$20.00") {
		t.Errorf("expected negative total in partial: %s", rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, path, url.Values{"field": {"type"}, "value": {"income"}})
	if !strings.Contains(rec.Body.String(), `<span class="total">$20.00</span>`) {
		t.Errorf("expected positive total: %s", rec.Body.String())
	}

	blob, _, _ := ts.store.Get(context.Background(), ledger.DefaultStorageKey)
	want := `[{"date":"2025-05-06","description":"","type":"income","amount":"20"}]`
	if blob != want {
		t.Fatalf("stored %s, want %s", blob, want)
	}

	rec = ts.do(t, http.MethodPost, path+"/delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}
	blob, _, _ = ts.store.Get(context.Background(), ledger.DefaultStorageKey)
	if blob != "[]" {
		t.Fatalf("stored %s after delete", blob)
	}

	// deleting again still succeeds
	if rec := ts.do(t, http.MethodPost, path+"/delete", nil); rec.Code != http.StatusOK {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}

func TestAddWithFields(t *testing.T) {
	ts := newTestServer(t)
	form := url.Values{"description": {"  rent <b>"}, "type": {"expense"}, "amount": {"900"}}
	if rec := ts.do(t, http.MethodPost, "/entries", form); rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	got := ts.ledger.Entries()[0]
	want := core.Entry{Date: "2025-05-06", Description: "  rent <b>", Type: core.Expense, Amount: "900"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	rec := ts.do(t, http.MethodGet, "/ui/ledger", nil)
	if strings.Contains(rec.Body.String(), "<b>") {
		t.Error("description must be escaped")
	}
}

func TestEditErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/entries", nil)
	ref := itoa(ts.ledger.Rows()[0].Ref)

	tests := []struct {
		name string
		path string
		form url.Values
		code int
	}{
		{"bad ref", "/entries/abc", url.Values{"field": {"amount"}, "value": {"1"}}, http.StatusBadRequest},
		{"unknown ref", "/entries/999", url.Values{"field": {"amount"}, "value": {"1"}}, http.StatusNotFound},
		{"unknown field", "/entries/" + ref, url.Values{"field": {"color"}, "value": {"1"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(t, http.MethodPost, tt.path, tt.form); rec.Code != tt.code {
				t.Errorf("status=%d, want %d", rec.Code, tt.code)
			}
		})
	}

	if rec := ts.do(t, http.MethodGet, "/entries", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /entries status=%d", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/entries", url.Values{"type": {"income"}, "amount": {"100"}})
	ts.do(t, http.MethodPost, "/entries", url.Values{"amount": {"50.50"}})

	rec := ts.do(t, http.MethodGet, "/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type=%q", ct)
	}
	if !strings.HasSuffix(rec.Body.String(), ",Total,,$49.50\n") {
		t.Errorf("unexpected CSV:\n%s", rec.Body.String())
	}
}

func TestReadyzReportsFailingCheck(t *testing.T) {
	ts := newTestServer(t, WithReadinessCheck("store", func(context.Context) error { return errors.New("down") }))
	rec := ts.do(t, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "failed: down") {
		t.Errorf("body=%s", rec.Body.String())
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	ts := newTestServer(t, WithRateLimit(2))
	for i := 0; i < 2; i++ {
		if rec := ts.do(t, http.MethodPost, "/entries", nil); rec.Code != http.StatusOK {
			t.Fatalf("add %d status=%d", i, rec.Code)
		}
	}
	if rec := ts.do(t, http.MethodPost, "/entries", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/ui/ledger", nil); rec.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/static/style.css", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=3600") {
		t.Error("missing cache header")
	}
}

func TestRendererMountUnknownTemplate(t *testing.T) {
	tmpl, err := ParseTemplates(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	l := ledger.New(memory.New(), NewHTMLRenderer(tmpl), ledger.WithLogger(log.Discard()))
	if err := l.Initialize(context.Background(), "missing.html"); !errors.Is(err, ledger.ErrMountNotFound) {
		t.Fatalf("expected ErrMountNotFound, got %v", err)
	}
}

func itoa(ref ledger.RowRef) string {
	return strconv.FormatUint(uint64(ref), 10)
}

func TestTrustedProxyForwardedClients(t *testing.T) {
	post := func(ts *testServer, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(""))
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		ts.srv.Handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// httptest requests come from 192.0.2.1
	trusted := newTestServer(t, WithRateLimit(1), WithTrustedProxies([]string{"192.0.2.0/24", "not-a-cidr"}))
	if code := post(trusted, "198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client status=%d", code)
	}
	if code := post(trusted, "198.51.100.2"); code != http.StatusOK {
		t.Fatalf("second client behind trusted proxy status=%d", code)
	}

	untrusted := newTestServer(t, WithRateLimit(1))
	post(untrusted, "198.51.100.1")
	if code := post(untrusted, "198.51.100.2"); code != http.StatusTooManyRequests {
		t.Fatalf("forwarded header from untrusted peer should be ignored, status=%d", code)
	}
}
