package palette

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"
	"github.com/vilmos-lang/vasm/cli/options"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
)

// NewCommands returns 'palette' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "palette",
		Usage:     "Print instruction colors",
		UsageText: "vasm palette [--config <file>]",
		Description: `Prints the color of every instruction after configuration overrides are
   applied. Overridden colors are marked with '*'. Payload instructions have
   no fixed color and are listed as literal.
`,
		Action: printPalette,
		Flags:  []cli.Flag{options.Config},
	}}
}

func printPalette(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	p, err := cfg.Palette()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	WriteTable(ctx.App.Writer, p)
	return nil
}

// WriteTable prints p as an aligned name/color table, duplicated colors are
// reported after it.
func WriteTable(w io.Writer, p *palette.Palette) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, op := range opcode.List() {
		if op.IsPayload() {
			_, _ = fmt.Fprintf(tw, "%s\tliteral\t\n", op)
			continue
		}
		var mark string
		if p.IsOverridden(op) {
			mark = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", op, p.Get(op), mark)
	}
	_ = tw.Flush()
	for _, group := range p.Duplicates() {
		names := make([]string, len(group))
		for i, op := range group {
			names[i] = op.String()
		}
		_, _ = fmt.Fprintf(w, "warning: [%s] share color %s\n", strings.Join(names, " "), p.Get(group[0]))
	}
}
