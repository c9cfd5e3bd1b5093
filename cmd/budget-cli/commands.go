package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"budget/internal/core"
	"budget/internal/export"
)

var commands = []subcommands.Command{
	&listCmd{},
	&addCmd{},
	&editCmd{},
	&deleteCmd{},
	&totalCmd{},
	&exportCmd{},
}

// run opens a session, hands it to fn and closes it.
func run(ctx context.Context, fn func(s *session) error) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	if err := fn(s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "print every entry and the running total" }
func (*listCmd) Usage() string {
	return `budget-cli list

  Prints the stored ledger as a table. Rows are numbered from 1; use that
  number with edit and delete.
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error { return s.print() })
}

type addCmd struct {
	date        string
	description string
	entryType   string
	amount      string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "append an entry" }
func (*addCmd) Usage() string {
	return `budget-cli add [-date YYYY-MM-DD] [-description text] [-type income|expense] [-amount n]

  Appends an entry and saves. Flags left out take the defaults: today,
  expense and 0.00.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Entry date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.description, "description", "", "Entry description.")
	f.StringVar(&c.entryType, "type", "", "income or expense. Defaults to expense.")
	f.StringVar(&c.amount, "amount", "", "Amount. Defaults to 0.00.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	values := map[string]string{
		"date":        c.date,
		"description": c.description,
		"type":        c.entryType,
		"amount":      c.amount,
	}
	var e core.Entry
	f.Visit(func(fl *flag.Flag) {
		if field, err := core.ParseField(fl.Name); err == nil {
			_ = e.Set(field, values[fl.Name])
		}
	})

	return run(ctx, func(s *session) error {
		if _, err := s.ledger.AddEntry(ctx, e); err != nil {
			return err
		}
		return s.print()
	})
}

type editCmd struct{}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change one field of an entry" }
func (*editCmd) Usage() string {
	return `budget-cli edit <row> <date|description|type|amount> <value>

  Sets one field of the entry at <row> and saves. Invalid dates and
  amounts are stored empty, an unknown type is cleared.
`
}
func (*editCmd) SetFlags(*flag.FlagSet) {}

func (*editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "edit takes a row, a field and a value")
		return subcommands.ExitUsageError
	}
	field, err := core.ParseField(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "field %q: %v\n", f.Arg(1), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		ref, err := s.rowAt(f.Arg(0))
		if err != nil {
			return err
		}
		if err := s.ledger.UpdateField(ctx, ref, field, f.Arg(2)); err != nil {
			return err
		}
		return s.print()
	})
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove an entry" }
func (*deleteCmd) Usage() string {
	return `budget-cli delete <row>

  Removes the entry at <row> and saves the rest.
`
}
func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "delete takes a row")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		ref, err := s.rowAt(f.Arg(0))
		if err != nil {
			return err
		}
		if err := s.ledger.DeleteEntry(ctx, ref); err != nil {
			return err
		}
		return s.print()
	})
}

type totalCmd struct{}

func (*totalCmd) Name() string     { return "total" }
func (*totalCmd) Synopsis() string { return "print the running total" }
func (*totalCmd) Usage() string {
	return `budget-cli total

  Prints income minus expenses, e.g. $49.50 or -$20.00.
`
}
func (*totalCmd) SetFlags(*flag.FlagSet) {}

func (*totalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		_, err := fmt.Fprintln(s.out, s.ledger.Summary().Display)
		return err
	})
}

type exportCmd struct {
	output string
	total  bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the ledger as CSV" }
func (*exportCmd) Usage() string {
	return `budget-cli export [-o file.csv] [-total]

  Writes every entry as CSV to stdout or to the given file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to stdout.")
	f.BoolVar(&c.total, "total", false, "Append a row with the formatted total.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		w := &export.CSVWriter{IncludeTotal: c.total}
		if c.output == "" {
			return w.Write(s.out, s.ledger.Entries())
		}
		return w.WriteToFile(c.output, s.ledger.Entries())
	})
}
