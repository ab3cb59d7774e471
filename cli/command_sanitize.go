package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/vfsr/vfsr/internal/tempname"
)

type commandSanitize struct {
	names []string

	app *App
}

func (c *commandSanitize) setup(app *App, parent commandParent) {
	cmd := parent.Command("sanitize", "Print the file name suffix that replicas of the given base names would get.")
	cmd.Arg("name", "Base names").Required().StringsVar(&c.names)
	cmd.Action(app.action(c.run))

	c.app = app
}

func (c *commandSanitize) run(_ context.Context) error {
	for _, n := range c.names {
		fmt.Fprintln(c.app.stdout(), tempname.Sanitize(n)) //nolint:errcheck
	}

	return nil
}

var _ commandParent = (*kingpin.Application)(nil)
