package core

import "github.com/shopspring/decimal"

// Summary is the derived total of a ledger. It is never persisted.
type Summary struct {
	Total    decimal.Decimal
	Display  string
	Negative bool
	// Malformed holds the positions of entries whose amount could not be
	// parsed; they contributed zero to Total.
	Malformed []int
}

// Summarize adds income and subtracts expenses over entries.
func Summarize(entries []Entry) Summary {
	total := decimal.Zero
	var malformed []int
	for i, e := range entries {
		amount, err := e.Amount.Decimal()
		if err != nil {
			malformed = append(malformed, i)
			continue
		}
		if e.Type.IsExpense() {
			amount = amount.Neg()
		}
		total = total.Add(amount)
	}
	return Summary{
		Total:     total,
		Display:   FormatUSD(total),
		Negative:  total.IsNegative(),
		Malformed: malformed,
	}
}
