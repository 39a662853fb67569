// Command vault maintains a local archive of daily stock prices and answers
// analytical queries over it.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
)

func main() {
	log.SetFlags(log.LstdFlags)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&initCmd{}, "")
	subcommands.Register(&refreshCmd{}, "archive")
	subcommands.Register(&watchCmd{}, "archive")
	subcommands.Register(&historyCmd{}, "queries")
	subcommands.Register(&closeCmd{}, "queries")
	subcommands.Register(&yieldCmd{}, "queries")
	subcommands.Register(&splitsCmd{}, "queries")
	subcommands.Register(&resampleCmd{}, "queries")
	subcommands.Register(&perfCmd{}, "queries")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
