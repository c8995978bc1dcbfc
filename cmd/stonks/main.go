// Command stonks runs backtests and Monte Carlo simulations from the
// command line against the same price cache the server uses.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	Register(subcommands.DefaultCommander)
	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&backtestCmd{}, "analysis")
	c.Register(&montecarloCmd{}, "analysis")

	c.Register(&historyCmd{}, "data")
	c.Register(&refreshCmd{}, "data")
}
