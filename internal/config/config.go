package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/docbridge/docbridge/pkg/types"
)

// Load loads configuration from multiple sources (priority order, later wins):
// 1. Global config (~/.config/docbridge/)
// 2. Project config (.docbridge/ inside the working directory)
// 3. DOCBRIDGE_CONFIG file
// 4. Environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Global config
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "docbridge.json"))
	loadOnce(filepath.Join(globalPath, "docbridge.jsonc"))

	// 2. Project config
	if directory != "" {
		loadOnce(filepath.Join(directory, "docbridge.json"))
		loadOnce(filepath.Join(directory, "docbridge.jsonc"))
		projectDir := filepath.Join(directory, ".docbridge")
		loadOnce(filepath.Join(projectDir, "docbridge.json"))
		loadOnce(filepath.Join(projectDir, "docbridge.jsonc"))
	}

	// 3. DOCBRIDGE_CONFIG file override
	if configPath := os.Getenv("DOCBRIDGE_CONFIG"); configPath != "" {
		loadOnce(configPath)
	}

	// 4. Environment variables (highest priority)
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file. JSONC comments are allowed.
func loadConfigFile(path string, config *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.DocumentServerURL != "" {
		target.DocumentServerURL = source.DocumentServerURL
	}
	if source.PublicHost != "" {
		target.PublicHost = source.PublicHost
	}
	if source.EditMode != nil {
		target.EditMode = source.EditMode
	}
	if source.Language != "" {
		target.Language = source.Language
	}
	if source.WatchDocuments != nil {
		target.WatchDocuments = source.WatchDocuments
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.LogPretty {
		target.LogPretty = true
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	if url := os.Getenv("DOCBRIDGE_DOCUMENT_SERVER"); url != "" {
		config.DocumentServerURL = url
	}
	if host := os.Getenv("DOCBRIDGE_PUBLIC_HOST"); host != "" {
		config.PublicHost = host
	}
	if lang := os.Getenv("DOCBRIDGE_LANG"); lang != "" {
		config.Language = lang
	}
	if level := os.Getenv("DOCBRIDGE_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if mode := os.Getenv("DOCBRIDGE_EDIT_MODE"); mode != "" {
		if v, err := strconv.ParseBool(mode); err == nil {
			config.EditMode = &v
		}
	}
	if watch := os.Getenv("DOCBRIDGE_WATCH_DOCUMENTS"); watch != "" {
		if v, err := strconv.ParseBool(watch); err == nil {
			config.WatchDocuments = &v
		}
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
