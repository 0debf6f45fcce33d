// Package local_test tests the local filesystem blob store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/local"
)

var _ storage.Provider = (*local.BlobStore)(nil)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		tempDir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: tempDir})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("CreatesBaseDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data", "archive")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "testfile")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		t.Cleanup(func() {
			// #nosec G302 -- reverting permissions to allow cleanup.
			_ = os.Chmod(tempDir, 0o700)
		})

		_, err := local.New(local.Config{BaseDir: tempDir})
		assert.Error(t, err)
	})
}

func TestSave(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	t.Run("RacePage", func(t *testing.T) {
		name := storage.PageObject(2023, 1)
		require.NoError(t, store.Save(context.Background(), name, []byte("<html>bahrain</html>")))

		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(filepath.Join(tempDir, "pages", "2023", "1.html"))
		require.NoError(t, err)
		assert.Equal(t, "<html>bahrain</html>", string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		name := storage.PageObject(2023, 2)
		require.NoError(t, store.Save(context.Background(), name, []byte("first")))
		require.NoError(t, store.Save(context.Background(), name, []byte("second")))

		path, err := store.Path(name)
		require.NoError(t, err)
		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		assert.Error(t, store.Save(context.Background(), "", []byte("data")))
	})

	t.Run("PathTraversal", func(t *testing.T) {
		assert.Error(t, store.Save(context.Background(), "../escape.html", []byte("data")))
		_, err := os.Stat(filepath.Join(filepath.Dir(tempDir), "escape.html"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestPageObject(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "pages/1999/16.html", storage.PageObject(1999, 16))
}
