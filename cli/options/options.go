/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli"
	"github.com/vilmos-lang/vasm/pkg/config"
	"github.com/vilmos-lang/vasm/pkg/io"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is a flag for commands that use assembler configuration.
var Config = cli.StringFlag{
	Name:  "config, c",
	Usage: "path to the YAML configuration file (" + config.DefaultConfigPath + " or built-in defaults if not set)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

// NoRandom is a flag that makes color allocation deterministic.
var NoRandom = cli.BoolFlag{
	Name:  "no-random, r",
	Usage: "use deterministic color splits (the same source always gives the same image)",
}

// GetConfigFromContext returns configuration loaded from the --config file.
// Without the flag config.DefaultConfigPath is tried, built-in defaults are
// used if there is no such file.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if path := ctx.String("config"); len(path) != 0 {
		return config.LoadFile(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadFile(config.DefaultConfigPath)
	}
	return config.Default(), nil
}

// GetRand returns the random source to use for color allocation, nil means
// deterministic allocation.
func GetRand(ctx *cli.Context) *rand.Rand {
	if ctx.Bool("no-random") {
		return nil
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.Logger) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	if len(cfg.LogEncoding) > 0 {
		cc.Encoding = cfg.LogEncoding
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := io.MakeDirForFile(logPath, "logger"); err != nil {
			return nil, nil, err
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}
