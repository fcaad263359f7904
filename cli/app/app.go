package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli"
	"github.com/vilmos-lang/vasm/cli/compile"
	"github.com/vilmos-lang/vasm/cli/console"
	"github.com/vilmos-lang/vasm/cli/palette"
	"github.com/vilmos-lang/vasm/pkg/config"
)

// devVersion is reported by builds without version set via ldflags.
const devVersion = "dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "vasm\nVersion: %s\nGoVersion: %s\n",
		c.App.Version,
		runtime.Version(),
	)
}

// New creates a vasm instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "vasm"
	ctl.Version = config.Version
	if len(ctl.Version) == 0 {
		ctl.Version = devVersion
	}
	ctl.Usage = "Assembler for pixel-color programs"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, compile.NewCommands()...)
	ctl.Commands = append(ctl.Commands, palette.NewCommands()...)
	ctl.Commands = append(ctl.Commands, console.NewCommands()...)
	return ctl
}
