package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
)

const testConfigPath = "../../config/vasm.yml"

func TestLoadFile(t *testing.T) {
	t.Run("sample", func(t *testing.T) {
		cfg, err := LoadFile(testConfigPath)
		require.NoError(t, err)
		require.Equal(t, DefaultPixelSize, cfg.Image.PixelSize)
		_, err = cfg.Palette()
		require.NoError(t, err)
	})
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "empty.yml")
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		cfg, err := LoadFile(p)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})
}

func TestUnmarshal(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		cfg, err := Unmarshal([]byte(`
Colors:
  sum: abc
  While_End: "123456"
  dup: ""
Image:
  PixelSize: 4
  MaxWidth: 100
Logger:
  LogLevel: debug
  LogPath: ./log/vasm.log
`))
		require.NoError(t, err)
		require.Equal(t, 4, cfg.Image.PixelSize)
		require.Equal(t, 100, cfg.Image.MaxWidth)
		require.Equal(t, "debug", cfg.Logger.LogLevel)

		p, err := cfg.Palette()
		require.NoError(t, err)
		require.Equal(t, "aabbcc", p.Get(opcode.SUM).String())
		require.Equal(t, "123456", p.Get(opcode.WHILEEND).String())
		require.Equal(t, palette.Default().Get(opcode.DUP), p.Get(opcode.DUP))
	})
	t.Run("defaults kept", func(t *testing.T) {
		cfg, err := Unmarshal([]byte("Image:\n  MaxWidth: 3\n"))
		require.NoError(t, err)
		require.Equal(t, DefaultPixelSize, cfg.Image.PixelSize)
	})
	t.Run("negative width", func(t *testing.T) {
		cfg, err := Unmarshal([]byte("Image:\n  MaxWidth: -1\n"))
		require.NoError(t, err)
		require.Equal(t, -1, cfg.Image.MaxWidth)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := Unmarshal([]byte("Colours:\n  sum: abc\n"))
		require.Error(t, err)
	})
	t.Run("invalid values", func(t *testing.T) {
		for _, data := range []string{
			"Image:\n  PixelSize: 0\n",
			"Logger:\n  LogLevel: loud\n",
			"Logger:\n  LogEncoding: xml\n",
		} {
			_, err := Unmarshal([]byte(data))
			require.Error(t, err, data)
		}
	})
	t.Run("payload color", func(t *testing.T) {
		cfg, err := Unmarshal([]byte("Colors:\n  raw_int: abc\n"))
		require.NoError(t, err)
		_, err = cfg.Palette()
		require.ErrorIs(t, err, palette.ErrPayloadOverride)
		require.ErrorIs(t, err, palette.ErrConfig)
	})
}
