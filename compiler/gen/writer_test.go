package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(DefaultHeader)
	f.Const().Id("Placeholder").Op("=").Lit(true)
	return f
}

func TestWriterReserve(t *testing.T) {
	t.Run("creates directory and placeholder", func(t *testing.T) {
		w := NewWriter(1)
		path := filepath.Join(t.TempDir(), "app", "appcomponent_merged.go")
		require.NoError(t, w.Reserve(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
		assert.Equal(t, 1, w.Metrics().FilesReserved)
	})

	t.Run("leaves existing content untouched", func(t *testing.T) {
		w := NewWriter(1)
		path := filepath.Join(t.TempDir(), "appcomponent_merged.go")
		require.NoError(t, os.WriteFile(path, []byte("package app\n"), 0o644))

		require.NoError(t, w.Reserve(path))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "package app\n", string(content))
	})
}

func TestWriterWriteFile(t *testing.T) {
	w := NewWriter(1)
	path := filepath.Join(t.TempDir(), "app", "appcomponent_merged.go")
	require.NoError(t, w.WriteFile(path, genFile("app")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "// Code generated by scopegen. DO NOT EDIT.")
	assert.Contains(t, string(content), "package app")

	m := w.Metrics()
	assert.Equal(t, 1, m.FilesWritten)
	assert.Equal(t, int64(len(content)), m.TotalBytes)
}

func TestWriterWriteAll(t *testing.T) {
	w := NewWriter(4)
	dir := t.TempDir()
	tasks := map[string]*jen.File{
		filepath.Join(dir, "a", "a_merged.go"): genFile("a"),
		filepath.Join(dir, "b", "b_merged.go"): genFile("b"),
		filepath.Join(dir, "c", "c_merged.go"): genFile("c"),
	}
	require.NoError(t, w.WriteAll(context.Background(), tasks))

	for path := range tasks {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	assert.Equal(t, 3, w.Metrics().FilesWritten)
}

func TestWriterWriteAllCanceled(t *testing.T) {
	w := NewWriter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.WriteAll(ctx, map[string]*jen.File{
		filepath.Join(t.TempDir(), "a_merged.go"): genFile("a"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriterEmitError(t *testing.T) {
	w := NewWriter(1)
	dir := t.TempDir()
	// The parent of the output path is a file, so directory creation fails.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))

	err := w.Reserve(filepath.Join(blocked, "x", "x_merged.go"))
	require.Error(t, err)
	assert.True(t, IsEmitError(err))
	assert.ErrorIs(t, err, ErrEmit)
}
