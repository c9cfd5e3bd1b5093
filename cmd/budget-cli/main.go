// Command budget-cli edits the stored ledger from a terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"budget/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "ledger")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
