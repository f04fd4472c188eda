package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTempSettingsFile creates a settings file pointing at a fresh
// experiment directory.
func createTempSettingsFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	storeDir := filepath.Join(dir, "experiments")
	require.NoError(t, os.MkdirAll(storeDir, 0o750))

	settingsYAML := `
server:
  listen: "127.0.0.1:0"
logging:
  level: info
  format: json
store:
  dir: ` + storeDir + `
`
	path := filepath.Join(dir, "detconf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(settingsYAML), 0o600))

	return path
}

func TestNewContainer(t *testing.T) {
	t.Run("creates container with valid settings", func(t *testing.T) {
		settingsPath := createTempSettingsFile(t)

		container, err := NewContainer(settingsPath)
		require.NoError(t, err)
		require.NotNil(t, container)
		assert.NotNil(t, container.Injector())

		assert.NoError(t, container.Shutdown())
	})

	t.Run("empty path uses built-in defaults", func(t *testing.T) {
		container, err := NewContainer("")
		require.NoError(t, err)

		stgSvc, err := Invoke[*SettingsService](container)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8787", stgSvc.Settings.Server.Listen)

		assert.NoError(t, container.Shutdown())
	})

	t.Run("settings resolve lazily", func(t *testing.T) {
		// Container creation succeeds even for an unreadable path;
		// the error surfaces on first resolution.
		container, err := NewContainer(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		_, err = Invoke[*SettingsService](container)
		assert.Error(t, err)
	})
}

func TestContainerResolvesServices(t *testing.T) {
	settingsPath := createTempSettingsFile(t)

	container, err := NewContainer(settingsPath)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, container.Shutdown())
	}()

	logSvc, err := Invoke[*LoggerService](container)
	require.NoError(t, err)
	assert.NotNil(t, logSvc.Logger)

	storeSvc, err := Invoke[*StoreService](container)
	require.NoError(t, err)
	require.NotNil(t, storeSvc.Store)

	names, err := storeSvc.Store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	catalogSvc, err := Invoke[*DatasetCatalogService](container)
	require.NoError(t, err)
	assert.True(t, catalogSvc.Catalog.Contains("coco_2014_train"))

	serverSvc, err := Invoke[*ServerService](container)
	require.NoError(t, err)
	assert.NotNil(t, serverSvc.Server)
}

func TestContainerSingletons(t *testing.T) {
	settingsPath := createTempSettingsFile(t)

	container, err := NewContainer(settingsPath)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, container.Shutdown())
	}()

	first := MustInvoke[*StoreService](container)
	second := MustInvoke[*StoreService](container)
	assert.Same(t, first, second)
}

func TestContainerStoreDirMissing(t *testing.T) {
	dir := t.TempDir()
	settingsYAML := `
store:
  dir: ` + filepath.Join(dir, "does-not-exist") + `
`
	path := filepath.Join(dir, "detconf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(settingsYAML), 0o600))

	container, err := NewContainer(path)
	require.NoError(t, err)

	_, err = Invoke[*StoreService](container)
	assert.Error(t, err)
}
