package metadata

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/roemer/plugman/pkg/common"
	"github.com/stretchr/testify/assert"
)

type testPaths struct {
	root string
}

func (p *testPaths) PluginsDirectory(framework common.FrameworkType) (string, error) {
	return filepath.Join(p.root, string(framework), "plugins"), nil
}

func (p *testPaths) DependenciesDirectory(framework common.FrameworkType) (string, error) {
	return filepath.Join(p.root, string(framework), "dependencies"), nil
}

func (p *testPaths) StagingDirectory() string {
	return filepath.Join(p.root, "staging")
}

func TestScopeDirectories(t *testing.T) {
	assert := assert.New(t)

	paths := &testPaths{root: "/srv"}

	pluginsDir, err := NewScope("7777", common.FRAMEWORK_TYPE_LABAPI).PluginsDirectory(paths)
	assert.NoError(err)
	assert.Equal(filepath.Join("/srv", "labapi", "plugins", "7777"), pluginsDir)

	// The global labapi scope is a regular instance folder
	pluginsDir, err = NewScope("global", common.FRAMEWORK_TYPE_LABAPI).PluginsDirectory(paths)
	assert.NoError(err)
	assert.Equal(filepath.Join("/srv", "labapi", "plugins", "global"), pluginsDir)

	// The global exiled scope is the shared base folder
	globalScope := NewScope("global", "Exiled")
	assert.True(globalScope.IsSharedLocation())
	dependenciesDir, err := globalScope.DependenciesDirectory(paths)
	assert.NoError(err)
	assert.Equal(filepath.Join("/srv", "exiled", "dependencies"), dependenciesDir)
	metadataPath, err := globalScope.MetadataFilePath(paths)
	assert.NoError(err)
	assert.Equal(filepath.Join("/srv", "exiled", "plugins", common.METADATA_FILE_NAME), metadataPath)

	_, err = NewScope("", common.FRAMEWORK_TYPE_LABAPI).PluginsDirectory(paths)
	assert.Error(err)
	_, err = NewScope("../x", common.FRAMEWORK_TYPE_LABAPI).PluginsDirectory(paths)
	assert.Error(err)
	_, err = NewScope("7777", "bukkit").PluginsDirectory(paths)
	assert.ErrorIs(err, common.ErrFrameworkUnavailable)
}

func TestDependerSet(t *testing.T) {
	assert := assert.New(t)

	set := NewDependerSet("b/b", "a/a", "b/b")
	assert.Equal(2, set.Len())
	assert.False(set.Add("a/a"))
	assert.True(set.Add("c/c"))
	assert.True(set.Contains("c/c"))
	assert.True(set.Remove("c/c"))
	assert.False(set.Remove("c/c"))

	content, err := json.Marshal(set)
	assert.NoError(err)
	assert.Equal(`["a/a","b/b"]`, string(content))

	loaded := &DependerSet{}
	assert.NoError(json.Unmarshal([]byte(`["x/x","x/x","y/y"]`), loaded))
	assert.Equal([]string{"x/x", "y/y"}, loaded.Sorted())

	var nilSet *DependerSet
	assert.Equal(0, nilSet.Len())
	assert.False(nilSet.Contains("a/a"))
}

func TestInstanceMetadataQueries(t *testing.T) {
	assert := assert.New(t)

	metadata := NewInstanceMetadata()
	metadata.InstalledPlugins["a/a"] = &InstalledPlugin{CurrentVersion: "1"}
	metadata.Dependencies["Shared.dll"] = &DependencyRecord{InstalledByPlugins: NewDependerSet("a/a", "b/b")}
	metadata.Dependencies["Only.dll"] = &DependencyRecord{InstalledByPlugins: NewDependerSet("a/a")}
	metadata.Dependencies["Manual.dll"] = &DependencyRecord{InstalledByPlugins: NewDependerSet(), ManuallyInstalled: true}

	assert.Equal([]string{"Only.dll", "Shared.dll"}, metadata.DependenciesOf("a/a"))
	assert.Empty(metadata.OrphanedDependencies())

	metadata.RemoveDepender("a/a")
	assert.Equal([]string{"Only.dll"}, metadata.OrphanedDependencies())
	assert.Equal([]string{"b/b"}, metadata.Dependencies["Shared.dll"].InstalledByPlugins.Sorted())
}

func TestStoreRoundTrip(t *testing.T) {
	assert := assert.New(t)

	store := NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), &testPaths{root: t.TempDir()})
	scope := NewScope("7777", common.FRAMEWORK_TYPE_LABAPI)

	metadata, err := store.Load(scope)
	assert.NoError(err)
	assert.Nil(metadata)
	exists, err := store.Exists(scope)
	assert.NoError(err)
	assert.False(exists)

	pluginsDir, dependenciesDir, err := store.EnsureDirectories(scope)
	assert.NoError(err)
	assert.DirExists(pluginsDir)
	assert.DirExists(dependenciesDir)

	metadata, err = store.LoadOrInit(scope)
	assert.NoError(err)
	checkedAt := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	metadata.LastUpdateCheck = &checkedAt
	metadata.InstalledPlugins["a/a"] = &InstalledPlugin{FileHash: "h", CurrentVersion: "v1", TargetVersion: "latest"}
	metadata.Dependencies["Shared.dll"] = &DependencyRecord{FileHash: "d", InstalledByPlugins: NewDependerSet("a/a")}
	assert.NoError(store.Save(scope, metadata))

	loaded, err := store.Load(scope)
	assert.NoError(err)
	assert.Equal("v1", loaded.InstalledPlugins["a/a"].CurrentVersion)
	assert.True(loaded.Dependencies["Shared.dll"].InstalledByPlugins.Contains("a/a"))
	assert.True(checkedAt.Equal(*loaded.LastUpdateCheck))
}

func TestStoreNormalizesNullDependers(t *testing.T) {
	assert := assert.New(t)

	paths := &testPaths{root: t.TempDir()}
	store := NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), paths)
	scope := NewScope("1", common.FRAMEWORK_TYPE_LABAPI)
	metadataPath, err := scope.MetadataFilePath(paths)
	assert.NoError(err)
	assert.NoError(os.MkdirAll(filepath.Dir(metadataPath), os.ModePerm))
	assert.NoError(os.WriteFile(metadataPath, []byte(`{"dependencies": {"A.dll": {"installedByPlugins": null}}}`), 0o644))

	metadata, err := store.Load(scope)
	assert.NoError(err)
	assert.NotNil(metadata.InstalledPlugins)
	assert.True(metadata.Dependencies["A.dll"].IsOrphaned())
	assert.True(metadata.Dependencies["A.dll"].InstalledByPlugins.Add("a/a"))
}

func TestScopeLock(t *testing.T) {
	assert := assert.New(t)

	store := NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), &testPaths{root: t.TempDir()})
	scope := NewScope("1", common.FRAMEWORK_TYPE_LABAPI)

	counter := 0
	waitGroup := sync.WaitGroup{}
	for range 20 {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			unlock := store.Lock(scope)
			defer unlock()
			current := counter
			time.Sleep(time.Millisecond)
			counter = current + 1
		}()
	}
	waitGroup.Wait()
	assert.Equal(20, counter)

	// Different scopes do not block each other
	unlock := store.Lock(scope)
	otherUnlock := store.Lock(NewScope("2", common.FRAMEWORK_TYPE_LABAPI))
	otherUnlock()
	unlock()
}
