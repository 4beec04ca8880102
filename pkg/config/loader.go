package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adhocore/jsonc"
	"github.com/goccy/go-yaml"
	"github.com/roemer/plugman/pkg/common"
)

const (
	// Environment variable that holds the path to the config file.
	ENV_CONFIG = "PLUGMAN_CONFIG"
	// Environment variable that holds the access token for the release host.
	ENV_TOKEN = "PLUGMAN_TOKEN"
	// The name of the config file that is searched when no path is given.
	DEFAULT_CONFIG_NAME = "plugman"
)

var configFileExtensions = []string{".json", ".jsonc", ".yaml", ".yml"}

// Loads the given configuration. If no path is given, the path from the environment
// or a "plugman" file in the working or user config directory is used. Without any file,
// a config with only default values is returned.
func Load(configPath string) (*PlugmanConfig, error) {
	if configPath == "" {
		configPath = os.Getenv(ENV_CONFIG)
	}

	var finalConfigPath string
	if configPath != "" {
		foundPath, err := resolveConfigPath(configPath)
		if err != nil {
			return nil, err
		}
		if foundPath == "" {
			return nil, fmt.Errorf("file not found for '%s'", configPath)
		}
		finalConfigPath = foundPath
	} else {
		for _, searchPath := range defaultSearchPaths() {
			foundPath, err := SearchConfigFileFromPath(searchPath)
			if err != nil {
				return nil, err
			}
			if foundPath != "" {
				finalConfigPath = foundPath
				break
			}
		}
	}

	config := &PlugmanConfig{}
	if finalConfigPath != "" {
		var err error
		if config, err = loadConfigFromFile(finalConfigPath); err != nil {
			return nil, err
		}
	}
	config.PostLoadProcess()
	return config, nil
}

// Searches a config file by probing the known extensions on the given path without extension.
func SearchConfigFileFromPath(pathWithoutExtension string) (string, error) {
	for _, ext := range configFileExtensions {
		candidate := pathWithoutExtension + ext
		exists, err := common.FileExists(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}
	return "", nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func resolveConfigPath(configPath string) (string, error) {
	if filepath.Ext(configPath) != "" {
		exists, err := common.FileExists(configPath)
		if err != nil || !exists {
			return "", err
		}
		return configPath, nil
	}
	return SearchConfigFileFromPath(configPath)
}

func defaultSearchPaths() []string {
	searchPaths := []string{DEFAULT_CONFIG_NAME}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigDir, "plugman", DEFAULT_CONFIG_NAME))
	}
	return searchPaths
}

func loadConfigFromFile(configPath string) (*PlugmanConfig, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed opening file '%s': %w", configPath, err)
	}
	return parseConfig(content, filepath.Ext(configPath))
}

func parseConfig(content []byte, extension string) (*PlugmanConfig, error) {
	config := &PlugmanConfig{}
	extension = strings.ToLower(extension)
	if !slices.Contains(configFileExtensions, extension) {
		return nil, fmt.Errorf("unsupported config extension '%s'", extension)
	}
	if extension == ".json" || extension == ".jsonc" {
		// json configs may contain comments, so convert it to plain json first
		strippedJson := jsonc.New().StripS(string(content))
		if err := json.Unmarshal([]byte(strippedJson), config); err != nil {
			return nil, fmt.Errorf("failed parsing json config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("failed parsing yaml config: %w", err)
		}
	}
	return config, nil
}
