package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roemer/plugman/pkg/common"
)

// Loads and saves the metadata of scopes and serializes the operations on a scope.
type Store struct {
	logger *slog.Logger
	paths  common.IPathsProvider
	locks  *keyedMutex
}

func NewStore(logger *slog.Logger, paths common.IPathsProvider) *Store {
	return &Store{
		logger: logger.With(slog.String("component", "metadata")),
		paths:  paths,
		locks:  &keyedMutex{},
	}
}

func (s *Store) Paths() common.IPathsProvider {
	return s.paths
}

// Acquires the lock of the scope. The returned function releases it.
func (s *Store) Lock(scope Scope) func() {
	return s.locks.lock(scope.String())
}

// Creates the plugins and dependencies directories of the scope if they are missing.
func (s *Store) EnsureDirectories(scope Scope) (string, string, error) {
	pluginsDir, err := scope.PluginsDirectory(s.paths)
	if err != nil {
		return "", "", err
	}
	dependenciesDir, err := scope.DependenciesDirectory(s.paths)
	if err != nil {
		return "", "", err
	}
	for _, dir := range []string{pluginsDir, dependenciesDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", "", fmt.Errorf("failed creating directory '%s': %w", dir, err)
		}
	}
	return pluginsDir, dependenciesDir, nil
}

// Checks if a metadata file exists for the scope.
func (s *Store) Exists(scope Scope) (bool, error) {
	metadataPath, err := scope.MetadataFilePath(s.paths)
	if err != nil {
		return false, err
	}
	return common.FileExists(metadataPath)
}

// Loads the metadata of the scope. Returns nil without an error if there is no metadata file.
func (s *Store) Load(scope Scope) (*InstanceMetadata, error) {
	metadataPath, err := scope.MetadataFilePath(s.paths)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(metadataPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed reading metadata '%s': %w", metadataPath, err)
	}
	metadata := NewInstanceMetadata()
	if err := json.Unmarshal(content, metadata); err != nil {
		return nil, fmt.Errorf("failed parsing metadata '%s': %w", metadataPath, err)
	}
	metadata.normalize()
	return metadata, nil
}

// Loads the metadata of the scope or creates an empty one if there is none yet.
func (s *Store) LoadOrInit(scope Scope) (*InstanceMetadata, error) {
	metadata, err := s.Load(scope)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		s.logger.Debug(fmt.Sprintf("Creating new metadata for '%s'", scope))
		metadata = NewInstanceMetadata()
	}
	return metadata, nil
}

// Writes the full metadata of the scope atomically.
func (s *Store) Save(scope Scope, metadata *InstanceMetadata) error {
	metadataPath, err := scope.MetadataFilePath(s.paths)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed converting metadata to json: %w", err)
	}
	s.logger.Debug(fmt.Sprintf("Writing metadata for '%s'", scope))
	if err := common.WriteFileAtomic(metadataPath, content, 0o644); err != nil {
		return fmt.Errorf("failed writing metadata '%s': %w", metadataPath, err)
	}
	return nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (m *InstanceMetadata) normalize() {
	if m.InstalledPlugins == nil {
		m.InstalledPlugins = map[string]*InstalledPlugin{}
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]*DependencyRecord{}
	}
	for pluginId, plugin := range m.InstalledPlugins {
		if plugin == nil {
			delete(m.InstalledPlugins, pluginId)
		}
	}
	for name, record := range m.Dependencies {
		if record == nil {
			delete(m.Dependencies, name)
			continue
		}
		if record.InstalledByPlugins == nil {
			record.InstalledByPlugins = NewDependerSet()
		}
	}
}
