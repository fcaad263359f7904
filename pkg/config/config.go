package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vilmos-lang/vasm/pkg/raster"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPixelSize is the default magnification factor of the image.
	DefaultPixelSize = 1
	// DefaultConfigPath is the path the CLI looks at when no --config is given.
	DefaultConfigPath = "./config/vasm.yml"
)

// Version is the version of the assembler, set at build time.
var Version string

// Config is the top level struct representing the assembler configuration.
type Config struct {
	// Colors overrides palette colors: opcode names (any case) to 3 or 6
	// hex digits.
	Colors map[string]string `yaml:"Colors"`
	Image  raster.Options    `yaml:"Image"`
	Logger Logger            `yaml:"Logger"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Image: raster.Options{
			PixelSize: DefaultPixelSize,
		},
	}
}

// LoadFile loads the config from the provided path.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Unmarshal(configData)
}

// Unmarshal parses YAML configuration on top of Default. Unknown fields are
// rejected.
func Unmarshal(data []byte) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks config values that don't depend on anything else.
func (c Config) Validate() error {
	if c.Image.PixelSize < 1 {
		return fmt.Errorf("invalid PixelSize %d: must be positive", c.Image.PixelSize)
	}
	return c.Logger.Validate()
}

// Palette builds the palette with Colors applied.
func (c Config) Palette() (*palette.Palette, error) {
	return palette.New(c.Colors)
}
