/*
Package console implements an interactive assembler shell.

Every input line is compiled as soon as it's entered and the resulting colors
are printed. The session keeps all of them, so the program typed so far can be
saved as an image. Lines starting with ':' are shell commands, see ':help'.
*/
package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/urfave/cli"
	"github.com/vilmos-lang/vasm/cli/options"
	clipalette "github.com/vilmos-lang/vasm/cli/palette"
	"github.com/vilmos-lang/vasm/pkg/compiler"
	"github.com/vilmos-lang/vasm/pkg/config"
	vio "github.com/vilmos-lang/vasm/pkg/io"
	"github.com/vilmos-lang/vasm/pkg/raster"
	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/emit"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	commandPrefix = ":"
	prompt        = "vasm> "
	consoleKey    = "console"
)

// Various errors.
var (
	ErrMissingParameter = errors.New("missing argument")
	ErrInvalidParameter = errors.New("can't parse argument")
)

var commands = []cli.Command{
	{
		Name:        "exit",
		Usage:       "Exit the console",
		UsageText:   `:exit`,
		Description: "Closes the console, the typed program is not saved.",
		Action:      handleExit,
	},
	{
		Name:      "palette",
		Usage:     "Print instruction colors",
		UsageText: `:palette`,
		Action:    handlePalette,
	},
	{
		Name:      "random",
		Usage:     "Switch randomized literal splits on or off",
		UsageText: `:random <on|off>`,
		Description: `Without randomization the same literal always gives the same colors.

Example:
> :random off`,
		Action: handleRandom,
	},
	{
		Name:      "pixels",
		Usage:     "Print all colors compiled so far",
		UsageText: `:pixels`,
		Action:    handlePixels,
	},
	{
		Name:      "reset",
		Usage:     "Forget the program typed so far",
		UsageText: `:reset`,
		Action:    handleReset,
	},
	{
		Name:      "save",
		Usage:     "Save the program typed so far as an image",
		UsageText: `:save <file>`,
		Description: `Writes a PNG image using the configured layout.

Example:
> :save /tmp/hello.png`,
		Action: handleSave,
	},
}

var completer *readline.PrefixCompleter

func init() {
	var pcItems []readline.PrefixCompleterInterface
	for _, c := range commands {
		pcItems = append(pcItems, readline.PcItem(commandPrefix+c.Name))
	}
	pcItems = append(pcItems, readline.PcItem(commandPrefix+"help"))
	for _, op := range opcode.List() {
		pcItems = append(pcItems, readline.PcItem(op.String()))
	}
	completer = readline.NewPrefixCompleter(pcItems...)
}

// Console is an interactive assembler session.
type Console struct {
	shell  *cli.App
	rl     *readline.Instance
	cfg    config.Config
	pal    *palette.Palette
	em     *emit.Emitter
	log    *zap.Logger
	onExit func(int)

	// program holds colors of all successfully compiled lines.
	program []color.Color
	line    int
}

// New creates a Console reading from the terminal. Randomized splits are
// used unless noRandom is set.
func New(cfg config.Config, log *zap.Logger, noRandom bool, onExit func(int)) (*Console, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:       prompt,
		AutoComplete: completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	c, err := newConsole(cfg, log, l.Stdout(), l.Stderr(), noRandom, onExit)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	c.rl = l
	return c, nil
}

func newConsole(cfg config.Config, log *zap.Logger, stdout, stderr io.Writer, noRandom bool, onExit func(int)) (*Console, error) {
	p, err := cfg.Palette()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctl := cli.NewApp()
	ctl.Name = "console"

	// Note: need to set empty `ctl.HelpName` and `ctl.UsageText`, otherwise
	// `filepath.Base(os.Args[0])` will be used which is `vasm`.
	ctl.HelpName = ""
	ctl.UsageText = ""

	ctl.Writer = stdout
	ctl.ErrWriter = stderr
	ctl.Version = config.Version
	ctl.Usage = "Interactive vasm shell, commands are prefixed with '" + commandPrefix + "'"

	// Override default error handler in order not to exit on error.
	ctl.ExitErrHandler = func(context *cli.Context, err error) {}

	ctl.Commands = commands

	c := &Console{
		shell:  ctl,
		cfg:    cfg,
		pal:    p,
		log:    log,
		onExit: onExit,
	}
	if err := c.setRandom(!noRandom); err != nil {
		return nil, err
	}
	ctl.Metadata = map[string]interface{}{
		consoleKey: c,
	}
	return c, nil
}

func getConsoleFromContext(app *cli.App) *Console {
	return app.Metadata[consoleKey].(*Console)
}

func (c *Console) setRandom(on bool) error {
	var rnd *rand.Rand
	if on {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	em, err := emit.New(c.pal, emit.Options{Rand: rnd, Logger: c.log})
	if err != nil {
		return err
	}
	c.em = em
	return nil
}

// Program returns colors of all lines compiled so far.
func (c *Console) Program() []color.Color {
	return c.program
}

// Eval handles a single input line. Errors are returned for lines that can't
// be compiled, the session is left intact in this case.
func (c *Console) Eval(line string) error {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, commandPrefix) {
		args, err := shellquote.Split(strings.TrimPrefix(trimmed, commandPrefix))
		if err != nil {
			return fmt.Errorf("failed to parse arguments: %w", err)
		}
		return c.shell.Run(append([]string{c.shell.Name}, args...))
	}

	c.line++
	ins, err := compiler.ParseLine(line)
	if err != nil {
		return &compiler.LineError{Line: c.line, Source: line, Err: err}
	}
	if ins == nil {
		return nil
	}
	w := vio.NewPixelWriter()
	ins.Emit(c.em, w)
	if w.Err != nil {
		return &compiler.LineError{Line: c.line, Source: line, Err: w.Err}
	}
	pix := w.Colors()
	c.program = append(c.program, pix...)
	c.log.Debug("compiled line", zap.Int("line", c.line), zap.Int("pixels", len(pix)))
	c.printColors(pix)
	return nil
}

func (c *Console) printColors(pix []color.Color) {
	for _, px := range pix {
		if op, ok := c.pal.Lookup(px); ok {
			_, _ = fmt.Fprintf(c.shell.Writer, "%s  %s\n", px, op)
			continue
		}
		_, _ = fmt.Fprintf(c.shell.Writer, "%s  literal %d\n", px, px.Magnitude())
	}
}

// Run starts the read-eval loop. It returns when input ends.
func (c *Console) Run() error {
	if c.rl == nil {
		return errors.New("console has no terminal attached")
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		_, _ = fmt.Fprintf(c.shell.Writer, "vasm %s, type %shelp for commands\n", config.Version, commandPrefix)
	}
	for {
		line, err := c.rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil // OK, stop execution.
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err) // Critical error, stop execution.
		}
		if err := c.Eval(line); err != nil {
			writeErr(c.shell.ErrWriter, err)
		}
	}
}

func handleExit(ctx *cli.Context) error {
	c := getConsoleFromContext(ctx.App)
	if c.rl != nil {
		_ = c.rl.Close()
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, "Bye!")
	if c.onExit != nil {
		c.onExit(0)
	}
	return nil
}

func handlePalette(ctx *cli.Context) error {
	clipalette.WriteTable(ctx.App.Writer, getConsoleFromContext(ctx.App).pal)
	return nil
}

func handleRandom(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return ErrMissingParameter
	}
	var on bool
	switch arg := ctx.Args().First(); arg {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("%w: %q, expected 'on' or 'off'", ErrInvalidParameter, arg)
	}
	if err := getConsoleFromContext(ctx.App).setRandom(on); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "random splits: %t\n", on)
	return nil
}

func handlePixels(ctx *cli.Context) error {
	c := getConsoleFromContext(ctx.App)
	c.printColors(c.program)
	_, _ = fmt.Fprintf(ctx.App.Writer, "total: %d\n", len(c.program))
	return nil
}

func handleReset(ctx *cli.Context) error {
	c := getConsoleFromContext(ctx.App)
	c.program = nil
	c.line = 0
	_, _ = fmt.Fprintln(ctx.App.Writer, "program cleared")
	return nil
}

func handleSave(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return ErrMissingParameter
	}
	var (
		c    = getConsoleFromContext(ctx.App)
		path = ctx.Args().First()
		buf  bytes.Buffer
	)
	if err := raster.Encode(&buf, c.program, c.pal.Get(opcode.QUIT), c.cfg.Image); err != nil {
		return err
	}
	if err := vio.WriteFile(path, buf.Bytes(), "image"); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "saved %d pixels to %s\n", len(c.program), path)
	return nil
}

func writeErr(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", err)
}

// NewCommands returns 'console' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "console",
		Usage:     "Start an interactive assembler shell",
		UsageText: "vasm console [-c config] [-r] [-d]",
		Action:    startConsole,
		Flags:     []cli.Flag{options.Config, options.NoRandom, options.Debug},
	}}
}

func startConsole(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	c, err := New(cfg, log, ctx.Bool("no-random"), cli.OsExiter)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := c.Run(); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
