// This file implements parsing of entry edits sent either as form data,
// the way htmx posts them, or as a JSON object.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
	"budget/internal/ledger"
)

const maxBodyBytes = 64 << 10

var errBadRowRef = errors.New("invalid row reference")

// RequestBodyParser reads a request body once and answers lookups from it
// whether it was JSON or form encoded.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	switch {
	case body == "":
		p.formData = url.Values{}
	case body[0] == '{':
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(body), &p.jsonData)
	default:
		p.formData, p.err = url.ParseQuery(body)
	}
	return p.err
}

// Lookup returns the value for key with control characters removed and
// whether it was present at all.
func (p *RequestBodyParser) Lookup(key string) (string, bool) {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return stripControl(stringValue(v)), ok
	}
	if p.formData != nil {
		if _, ok := p.formData[key]; ok {
			return stripControl(p.formData.Get(key)), true
		}
	}
	return "", false
}

func (p *RequestBodyParser) Get(key string) string {
	v, _ := p.Lookup(key)
	return v
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNewEntry builds the entry for an add request. Fields that are not
// sent stay unset and are defaulted by the ledger; fields that are sent go
// through the same coercion as an edit.
func (p *RequestBodyParser) ParseNewEntry() core.Entry {
	var e core.Entry
	for _, f := range core.Fields() {
		if v, ok := p.Lookup(string(f)); ok {
			_ = e.Set(f, v)
		}
	}
	return e
}

// ParseFieldEdit reads the "field" and "value" pair of an edit request.
func (p *RequestBodyParser) ParseFieldEdit() (core.Field, string, error) {
	f, err := core.ParseField(p.Get("field"))
	if err != nil {
		return "", "", fmt.Errorf("field %q: %w", p.Get("field"), err)
	}
	return f, p.Get("value"), nil
}

// parseRowRef reads the {ref} path segment.
func parseRowRef(r *http.Request) (ledger.RowRef, error) {
	ref, err := strconv.ParseUint(strings.TrimSpace(r.PathValue("ref")), 10, 64)
	if err != nil || ref == 0 {
		return 0, errBadRowRef
	}
	return ledger.RowRef(ref), nil
}

// stripControl removes control characters except tab, newline and
// carriage return. Surrounding whitespace is kept: descriptions are stored
// as typed.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
