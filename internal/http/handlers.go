package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/ledger"
	"budget/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderer.WritePage(&buf); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index render failed",
			log.NewFields().WithOperation(log.OpRender).WithError(err).ToSlice()...)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.writeLedger(w, r, false)
}

// handleAddEntry appends a row. Fields may be posted; the "New Entry"
// button posts none and gets every default.
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	if _, err := s.ledger.AddEntry(r.Context(), p.ParseNewEntry()); err != nil {
		s.mutationFailed(w, r, log.OpAdd, err)
		return
	}
	s.writeLedger(w, r, true)
}

// handleUpdateEntry is the change event of one input in a row.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	ref, err := parseRowRef(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	field, value, err := p.ParseFieldEdit()
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.ledger.UpdateField(r.Context(), ref, field, value); err != nil {
		s.mutationFailed(w, r, log.OpUpdate, err)
		return
	}
	s.writeLedger(w, r, true)
}

// handleDeleteEntry removes a row. A row that is already gone is not an
// error: the remaining rows are saved either way.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ref, err := parseRowRef(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.DeleteEntry(r.Context(), ref); err != nil {
		s.mutationFailed(w, r, log.OpDelete, err)
		return
	}
	s.writeLedger(w, r, true)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	cw := &export.CSVWriter{IncludeTotal: true}
	if err := cw.Write(&buf, s.ledger.Entries()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.ledger.Key()+`.csv"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) writeLedger(w http.ResponseWriter, r *http.Request, changed bool) {
	var buf bytes.Buffer
	if err := s.renderer.WriteLedger(&buf); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger render failed",
			log.NewFields().WithOperation(log.OpRender).WithError(err).ToSlice()...)
		InternalServerError("Could not render the ledger").Write(w)
		return
	}
	resp := NewHTMXResponse().BodyHTML(buf.Bytes())
	if changed {
		resp.TriggerLedgerChanged(s.ledger.Summary())
	}
	resp.Write(w)
}

func (s *Server) mutationFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrRowNotFound):
		NotFoundError("Entry no longer exists").Write(w)
	case errors.Is(err, core.ErrUnknownField):
		BadRequestError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger update failed",
			log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
		InternalServerError("Could not save the ledger").Write(w)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady checks the renderer and every registered dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{}

	if s.renderer.Mounted() {
		checks["templates"] = "ok"
	} else {
		checks["templates"] = "failed: not mounted"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":          status,
		"checks":          checks,
		"entries":         len(s.ledger.Rows()),
		"rate_limited":    s.limiter.Hits(),
		"active_clients":  s.limiter.ActiveClients(),
		"suspicious":      s.detector.SuspiciousRequests(),
		"requests_served": s.tracer.GetMetrics().TotalRequests,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
