package compile

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/vilmos-lang/vasm/cli/options"
	"github.com/vilmos-lang/vasm/pkg/compiler"
	"github.com/vilmos-lang/vasm/pkg/config"
	"github.com/vilmos-lang/vasm/pkg/vm/emit"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
	"go.uber.org/zap"
)

var errNoInput = errors.New("no input file was found, specify an input file with the '--in or -i' flag")

// NewCommands returns 'compile' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "compile",
		Usage:     "Compile an assembly source into a PNG program image",
		UsageText: "vasm compile -i path [-o output] [-c config] [--pixel-size N] [--max-width N] [-r] [-d]",
		Description: `Compiles the given source file into an image. Every instruction becomes
   one or more pixels laid out row by row, the last row is padded with the
   QUIT color. If no output is given, the source name with '.png'
   extension is used.

   Literal values are split into colors randomly unless --no-random is
   given, so two compilations of the same source usually differ while
   running the same way.
`,
		Action: compileSource,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "in, i",
				Usage: "Input file for the assembler",
			},
			cli.StringFlag{
				Name:  "out, o",
				Usage: "Output of the compiled image",
			},
			cli.IntFlag{
				Name:  "pixel-size",
				Usage: "Side of the square block every pixel is drawn as (overrides configuration)",
			},
			cli.IntFlag{
				Name:  "max-width",
				Usage: "Maximum number of pixels per row, 0 or negative for unlimited (overrides configuration)",
			},
			options.Config,
			options.NoRandom,
			options.Debug,
		},
	}}
}

func compileSource(ctx *cli.Context) error {
	src := ctx.String("in")
	if len(src) == 0 {
		return cli.NewExitError(errNoInput, 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.IsSet("pixel-size") {
		cfg.Image.PixelSize = ctx.Int("pixel-size")
	}
	if ctx.IsSet("max-width") {
		cfg.Image.MaxWidth = ctx.Int("max-width")
	}
	if err := cfg.Validate(); err != nil {
		return cli.NewExitError(err, 1)
	}

	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	e, err := newEmitter(ctx, cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	o := &compiler.Options{
		Outfile: ctx.String("out"),
		Image:   cfg.Image,
		Logger:  log,
	}
	if _, err := compiler.CompileAndSave(src, e, o); err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, o.Outfile)
	return nil
}

func newEmitter(ctx *cli.Context, cfg config.Config, log *zap.Logger) (*emit.Emitter, error) {
	p, err := cfg.Palette()
	if err != nil {
		return nil, err
	}
	warnDuplicates(p, log)
	return emit.New(p, emit.Options{
		Rand:   options.GetRand(ctx),
		Logger: log,
	})
}

func warnDuplicates(p *palette.Palette, log *zap.Logger) {
	for _, group := range p.Duplicates() {
		names := make([]string, len(group))
		for i, op := range group {
			names[i] = op.String()
		}
		log.Warn("instructions share a color, the image will be ambiguous",
			zap.Strings("instructions", names),
			zap.Stringer("color", p.Get(group[0])))
	}
}
