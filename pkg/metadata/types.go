package metadata

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/samber/lo"
)

// The persisted state of a scope.
type InstanceMetadata struct {
	InstalledPlugins map[string]*InstalledPlugin  `json:"installedPlugins"`
	Dependencies     map[string]*DependencyRecord `json:"dependencies"`
	LastUpdateCheck  *time.Time                   `json:"lastUpdateCheck,omitempty"`
}

type InstalledPlugin struct {
	FileHash         string    `json:"fileHash"`
	InstallationDate time.Time `json:"installationDate"`
	UpdateDate       time.Time `json:"updateDate"`
	// The tag of the binary that is on disk.
	CurrentVersion string `json:"currentVersion"`
	// Either "latest" or a pinned tag.
	TargetVersion string `json:"targetVersion"`
}

type DependencyRecord struct {
	FileHash           string      `json:"fileHash"`
	InstallationDate   time.Time   `json:"installationDate"`
	UpdateDate         time.Time   `json:"updateDate"`
	InstalledByPlugins *DependerSet `json:"installedByPlugins"`
	// Manually installed dependencies are never removed automatically.
	ManuallyInstalled bool `json:"manuallyInstalled"`
}

func NewInstanceMetadata() *InstanceMetadata {
	return &InstanceMetadata{
		InstalledPlugins: map[string]*InstalledPlugin{},
		Dependencies:     map[string]*DependencyRecord{},
	}
}

// Gets the sorted ids of all installed plugins.
func (m *InstanceMetadata) PluginIds() []string {
	pluginIds := lo.Keys(m.InstalledPlugins)
	slices.Sort(pluginIds)
	return pluginIds
}

// Gets the sorted names of all dependencies.
func (m *InstanceMetadata) DependencyNames() []string {
	names := lo.Keys(m.Dependencies)
	slices.Sort(names)
	return names
}

// Gets the sorted names of the dependencies the given plugin depends on.
func (m *InstanceMetadata) DependenciesOf(pluginId string) []string {
	return lo.Filter(m.DependencyNames(), func(name string, _ int) bool {
		return m.Dependencies[name].InstalledByPlugins.Contains(pluginId)
	})
}

// Removes the plugin from all depender sets.
func (m *InstanceMetadata) RemoveDepender(pluginId string) {
	for _, record := range m.Dependencies {
		record.InstalledByPlugins.Remove(pluginId)
	}
}

// Gets the sorted names of all dependencies that are garbage: no depender left and not manually installed.
func (m *InstanceMetadata) OrphanedDependencies() []string {
	return lo.Filter(m.DependencyNames(), func(name string, _ int) bool {
		return m.Dependencies[name].IsOrphaned()
	})
}

func (r *DependencyRecord) IsOrphaned() bool {
	return !r.ManuallyInstalled && r.InstalledByPlugins.Len() == 0
}

// A set of plugin ids. Persisted as a sorted list.
type DependerSet struct {
	items map[string]struct{}
}

func NewDependerSet(pluginIds ...string) *DependerSet {
	set := &DependerSet{items: map[string]struct{}{}}
	for _, pluginId := range pluginIds {
		set.Add(pluginId)
	}
	return set
}

func (s *DependerSet) ensure() {
	if s.items == nil {
		s.items = map[string]struct{}{}
	}
}

// Adds the plugin id. Returns false if it was already present.
func (s *DependerSet) Add(pluginId string) bool {
	s.ensure()
	if _, ok := s.items[pluginId]; ok {
		return false
	}
	s.items[pluginId] = struct{}{}
	return true
}

// Removes the plugin id. Returns false if it was not present.
func (s *DependerSet) Remove(pluginId string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.items[pluginId]; !ok {
		return false
	}
	delete(s.items, pluginId)
	return true
}

func (s *DependerSet) Contains(pluginId string) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[pluginId]
	return ok
}

func (s *DependerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *DependerSet) Sorted() []string {
	if s == nil {
		return []string{}
	}
	pluginIds := lo.Keys(s.items)
	slices.Sort(pluginIds)
	return pluginIds
}

func (s *DependerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *DependerSet) UnmarshalJSON(data []byte) error {
	pluginIds := []string{}
	if err := json.Unmarshal(data, &pluginIds); err != nil {
		return err
	}
	s.items = map[string]struct{}{}
	for _, pluginId := range pluginIds {
		s.Add(pluginId)
	}
	return nil
}
