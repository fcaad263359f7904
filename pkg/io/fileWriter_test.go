package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeDirForFile(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "testDir", "testFile.png")
		require.NoError(t, MakeDirForFile(filePath, "test"))

		f, err := os.Create(filePath)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	})
	t.Run("file in the way", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "testFile.png")
		require.NoError(t, os.WriteFile(filePath, nil, 0o644))

		err := MakeDirForFile(filepath.Join(filePath, "error"), "test")
		require.ErrorContains(t, err, "could not create dir for test")
	})
}

func TestWriteFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "a", "b", "out.png")
	require.NoError(t, WriteFile(filePath, []byte{1, 2}, "image"))
	require.NoError(t, WriteFile(filePath, []byte{3}, "image"))

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, []byte{3}, data)

	err = WriteFile(filepath.Join(filePath, "x.png"), nil, "image")
	require.ErrorContains(t, err, "could not create dir for image")
}
