package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalJSON decodes an entry without rejecting unexpected shapes.
// String fields are taken verbatim, numbers are kept as their literal text
// and any other JSON value (null, bool, object, array) leaves the field
// unset. A non-object element decodes to an empty entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*e = Entry{}
		return nil
	}
	*e = Entry{
		Date:        looseString(fields["date"]),
		Description: looseString(fields["description"]),
		Type:        EntryType(looseString(fields["type"])),
		Amount:      Amount(looseString(fields["amount"])),
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// DecodeEntries parses a stored ledger blob. An empty blob is an empty
// ledger. A blob that is not a JSON array returns ErrMalformedLedger.
func DecodeEntries(blob string) ([]Entry, error) {
	if strings.TrimSpace(blob) == "" {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
	}
	return entries, nil
}

// EncodeEntries serializes entries in order as a JSON array. An empty
// ledger encodes as "[]".
func EncodeEntries(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode entries: %w", err)
	}
	return string(b), nil
}
