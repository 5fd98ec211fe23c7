package markdown

import (
	"os"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFs(t *testing.T, files map[string]string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	t.Cleanup(stubs.Reset)
}

func TestLoadFile(t *testing.T) {
	t.Run("ReadsAndExtracts", func(t *testing.T) {
		stubFs(t, map[string]string{
			"/docs/README.md": "# Usage\n\n```sh\nls -la\n```\n",
		})

		blocks, err := LoadFile("/docs/README.md")
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, []string{"Usage"}, blocks[0].Headings)
	})

	t.Run("MissingFile", func(t *testing.T) {
		stubFs(t, map[string]string{})

		_, err := LoadFile("/docs/missing.md")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), "while reading /docs/missing.md")
	})

	t.Run("MalformedFence", func(t *testing.T) {
		stubFs(t, map[string]string{
			"/docs/broken.md": "```sh\necho never closed\n",
		})

		_, err := LoadFile("/docs/broken.md")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnterminatedFence)
	})
}

func TestWorkingDir(t *testing.T) {
	assert.Equal(t, ".", WorkingDir("README.md"))
	assert.Equal(t, "docs", WorkingDir("docs/README.md"))
	assert.Equal(t, "/abs/path", WorkingDir("/abs/path/README.md"))
}

func TestSelect(t *testing.T) {
	blocks := []CodeBlock{
		{ID: "block-001", Name: "build"},
		{ID: "block-002"},
		{ID: "block-003", Name: "build"},
	}

	t.Run("EmptyKeySelectsAll", func(t *testing.T) {
		selected, err := Select(blocks, "")
		require.NoError(t, err)
		assert.Len(t, selected, 3)
	})

	t.Run("ByID", func(t *testing.T) {
		selected, err := Select(blocks, "block-002")
		require.NoError(t, err)
		require.Len(t, selected, 1)
		assert.Equal(t, "block-002", selected[0].ID)
	})

	t.Run("ByNameTakesFirstMatch", func(t *testing.T) {
		selected, err := Select(blocks, "build")
		require.NoError(t, err)
		require.Len(t, selected, 1)
		assert.Equal(t, "block-001", selected[0].ID)
	})

	t.Run("NoMatch", func(t *testing.T) {
		_, err := Select(blocks, "deploy")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBlockNotFound)
		assert.Equal(t, "unknown block id or name deploy", err.Error())
	})
}
