/*
Command-line tool for materializing files as uniquely named local replicas.

Usage:

	$ vfsr [<flags>] <subcommand> [<args> ...]

Use 'vfsr help' to see more details.
*/
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/vfsr/vfsr/cli"
)

func main() {
	app := kingpin.New("vfsr", "vfsr - unique file replicator")
	a := cli.NewApp()

	a.Attach(app)

	if err := a.Run(app, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
