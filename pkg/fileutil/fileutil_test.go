package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rohmanhakim/url-seeder/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_SinglePathComponent(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "testdir")

	err := fileutil.EnsureDir(targetDir)
	require.NoError(t, err)

	info, statErr := os.Stat(targetDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_MultiplePathComponents(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "parent", "child", "grandchild")

	err := fileutil.EnsureDir(tmpDir, "parent", "child", "grandchild")
	require.NoError(t, err)

	info, statErr := os.Stat(targetDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_DirectoryAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "existing")

	err := os.MkdirAll(targetDir, 0755)
	require.NoError(t, err)

	assert.NoError(t, fileutil.EnsureDir(targetDir))
}

func TestWriteFileAtomic_WritesContent(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "entry.json")

	err := fileutil.WriteFileAtomic(target, []byte(`{"url":"https://example.com"}`))
	require.NoError(t, err)

	data, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, `{"url":"https://example.com"}`, string(data))
}

func TestWriteFileAtomic_OverwritesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "entry.json")

	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))
	require.NoError(t, fileutil.WriteFileAtomic(target, []byte("new")))

	data, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, "new", string(data))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "entry.json")

	require.NoError(t, fileutil.WriteFileAtomic(target, []byte("data")))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteFileAtomic_MissingDirectoryFails(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "missing", "entry.json")

	err := fileutil.WriteFileAtomic(target, []byte("data"))
	require.Error(t, err)

	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
}
