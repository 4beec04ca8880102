package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roemer/plugman/pkg/common"
)

// A server instance together with the plugin framework. Each scope has its own plugins,
// dependencies and metadata file.
type Scope struct {
	Instance  string
	Framework common.FrameworkType
}

func NewScope(instance string, framework common.FrameworkType) Scope {
	return Scope{
		Instance:  strings.TrimSpace(instance),
		Framework: common.FrameworkType(strings.ToLower(string(framework))),
	}
}

func (s Scope) String() string {
	return fmt.Sprintf("%s@%s", s.Instance, s.Framework)
}

// Checks if the scope denotes the shared, non per-instance location.
// Only the exiled framework has such a location.
func (s Scope) IsSharedLocation() bool {
	return s.Framework == common.FRAMEWORK_TYPE_EXILED && s.Instance == common.INSTANCE_GLOBAL
}

func (s Scope) Validate() error {
	if s.Instance == "" {
		return fmt.Errorf("no instance given for scope '%s'", s)
	}
	if strings.ContainsAny(s.Instance, `/\`) || s.Instance == "." || s.Instance == ".." {
		return fmt.Errorf("invalid instance '%s'", s.Instance)
	}
	switch s.Framework {
	case common.FRAMEWORK_TYPE_LABAPI, common.FRAMEWORK_TYPE_EXILED:
		return nil
	}
	return fmt.Errorf("invalid framework '%s': %w", s.Framework, common.ErrFrameworkUnavailable)
}

// Gets the directory holding the plugins and the metadata file of the scope.
func (s Scope) PluginsDirectory(paths common.IPathsProvider) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	baseDir, err := paths.PluginsDirectory(s.Framework)
	if err != nil {
		return "", err
	}
	return s.scopedDirectory(baseDir), nil
}

// Gets the directory holding the shared dependencies of the scope.
func (s Scope) DependenciesDirectory(paths common.IPathsProvider) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	baseDir, err := paths.DependenciesDirectory(s.Framework)
	if err != nil {
		return "", err
	}
	return s.scopedDirectory(baseDir), nil
}

func (s Scope) MetadataFilePath(paths common.IPathsProvider) (string, error) {
	pluginsDir, err := s.PluginsDirectory(paths)
	if err != nil {
		return "", err
	}
	return filepath.Join(pluginsDir, common.METADATA_FILE_NAME), nil
}

func (s Scope) scopedDirectory(baseDir string) string {
	if s.IsSharedLocation() {
		return baseDir
	}
	return filepath.Join(baseDir, s.Instance)
}
