package compiler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	vio "github.com/vilmos-lang/vasm/pkg/io"
	"github.com/vilmos-lang/vasm/pkg/raster"
	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/emit"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
	"go.uber.org/zap"
)

const (
	srcExt   = ".vasm"
	imageExt = ".png"
)

// Options contains all the parameters that affect the behaviour of the compiler.
type Options struct {
	// The name of the output file, source name with .png extension by default.
	Outfile string

	// Image layout of the output file.
	Image raster.Options

	// Logger is a nop logger if not set.
	Logger *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// LineError is an error attributed to a particular source line.
type LineError struct {
	// Line is 1-based.
	Line   int
	Source string
	Err    error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %s", e.Line, e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *LineError) Unwrap() error {
	return e.Err
}

// Compile compiles source lines read from r into a color sequence. The first
// error stops compilation, nothing is returned in that case.
func Compile(r io.Reader, e *emit.Emitter, o *Options) ([]color.Color, error) {
	var (
		log = o.logger()
		br  = bufio.NewReader(r)
		w   = vio.NewPixelWriter()
	)
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read line %d: %w", n, err)
		}
		if len(line) == 0 && err != nil {
			break
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		before := w.Len()
		if perr := compileLine(line, e, w); perr != nil {
			return nil, &LineError{Line: n, Source: line, Err: perr}
		}
		if w.Len() != before {
			log.Debug("compiled line",
				zap.Int("line", n),
				zap.String("source", line),
				zap.Int("pixels", w.Len()-before))
		}
		if err != nil {
			break
		}
	}
	return w.Colors(), nil
}

func compileLine(line string, e *emit.Emitter, w *vio.PixelWriter) error {
	ins, err := ParseLine(line)
	if err != nil || ins == nil {
		return err
	}
	ins.Emit(e, w)
	return w.Err
}

// CompileAndSave compiles the source file src and writes the resulting PNG
// image. The output file is only created when compilation succeeds.
func CompileAndSave(src string, e *emit.Emitter, o *Options) ([]color.Color, error) {
	if o == nil {
		o = &Options{}
	}
	if len(o.Outfile) == 0 {
		o.Outfile = strings.TrimSuffix(src, srcExt) + imageExt
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pix, err := Compile(f, e, o)
	if err != nil {
		return nil, fmt.Errorf("error while trying to compile %s: %w", filepath.Base(src), err)
	}

	var buf bytes.Buffer
	fill := e.Palette().Get(opcode.QUIT)
	if err := raster.Encode(&buf, pix, fill, o.Image); err != nil {
		return nil, fmt.Errorf("error while rendering image: %w", err)
	}
	if err := vio.WriteFile(o.Outfile, buf.Bytes(), "image"); err != nil {
		return nil, err
	}

	width, height, _ := raster.Layout(len(pix), o.Image)
	o.logger().Info("image written",
		zap.String("path", o.Outfile),
		zap.Int("pixels", len(pix)),
		zap.Int("width", width),
		zap.Int("height", height))
	return pix, nil
}
