package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/spendkit/cli/simulate"
	"github.com/nspcc-dev/spendkit/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "SpendKit\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a spendkit instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "spendkit"
	ctl.Version = config.Version
	ctl.Usage = "Spend builder and ledger simulator for coin-set assets"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, simulate.NewCommands()...)
	return ctl
}
