package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldType        Field = "type"
	FieldAmount      Field = "amount"
)

// DateLayout is the calendar date format used by entries (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DefaultAmount is the amount given to entries created without one.
const DefaultAmount Amount = "0.00"

type (
	EntryType string

	// Field names one editable column of an entry row.
	Field string

	// Amount is the amount exactly as entered. It is kept as text so that
	// values which do not parse survive a save/load cycle unchanged.
	Amount string

	Entry struct {
		Date        string    `json:"date"`
		Description string    `json:"description"`
		Type        EntryType `json:"type"`
		Amount      Amount    `json:"amount"`
	}
)

var (
	ErrUnknownField    = errors.New("unknown entry field")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMalformedLedger = errors.New("malformed ledger data")
)

// Fields lists the editable fields in display order.
func Fields() []Field {
	return []Field{FieldDate, FieldDescription, FieldType, FieldAmount}
}

// ParseField maps a field name to a Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.TrimSpace(s))
	switch f {
	case FieldDate, FieldDescription, FieldType, FieldAmount:
		return f, nil
	}
	return "", ErrUnknownField
}

// IsExpense reports whether entries of this type reduce the total.
// Anything other than "expense" counts as income.
func (t EntryType) IsExpense() bool {
	return t == Expense
}

// Today returns the UTC calendar date of now in DateLayout.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// WithDefaults fills each unset field independently: date becomes today,
// type becomes expense and amount becomes 0.00. Description stays empty.
func (e Entry) WithDefaults(now time.Time) Entry {
	if e.Date == "" {
		e.Date = Today(now)
	}
	if e.Type == "" {
		e.Type = Expense
	}
	if e.Amount == "" {
		e.Amount = DefaultAmount
	}
	return e
}

// Set applies an edit to a single field, coercing the value the way the
// matching form control would: an unparsable date or amount becomes empty
// and an unknown type is cleared.
func (e *Entry) Set(f Field, value string) error {
	switch f {
	case FieldDate:
		value = strings.TrimSpace(value)
		if _, err := time.Parse(DateLayout, value); err != nil {
			value = ""
		}
		e.Date = value
	case FieldDescription:
		e.Description = value
	case FieldType:
		t := EntryType(strings.TrimSpace(value))
		if t != Income && t != Expense {
			t = ""
		}
		e.Type = t
	case FieldAmount:
		a := Amount(strings.TrimSpace(value))
		if _, err := a.Decimal(); err != nil {
			a = ""
		}
		e.Amount = a
	default:
		return ErrUnknownField
	}
	return nil
}

// Get returns the current value of a field.
func (e Entry) Get(f Field) (string, error) {
	switch f {
	case FieldDate:
		return e.Date, nil
	case FieldDescription:
		return e.Description, nil
	case FieldType:
		return string(e.Type), nil
	case FieldAmount:
		return string(e.Amount), nil
	}
	return "", ErrUnknownField
}
