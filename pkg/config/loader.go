package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// ProjectConfigFile is the name of the config file searched for in the current and parent directories
const ProjectConfigFile = "pepdigest.yaml"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (pepdigest.yaml in current or parent directories)
// 3. The explicit config file, when path is not empty
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" && projectConfigPath != path {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if path != "" {
		// An explicit file replaces rather than merges so zero values in it stick
		explicit, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", path))
		config = explicit
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Proteases returns the built-in protease table merged with the configured protease file.
func (l *Loader) Proteases(config *Config) (*protease.Table, error) {
	table := protease.DefaultTable()
	path := config.Digestion.ProteaseFile
	if path == "" {
		return table, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open protease file: %w", err)
	}
	defer f.Close()

	extra, err := protease.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse protease file %s: %w", path, err)
	}
	l.logger.Debug("Loaded protease table", slog.String("path", path), slog.Int("proteases", extra.Len()))
	return table.Merge(extra), nil
}

// Catalog returns the built-in modification catalog extended by the configured catalog file.
func (l *Loader) Catalog(config *Config) (*core.ModificationCatalog, error) {
	catalog := core.DefaultModificationCatalog()
	path := config.Modifications.CatalogFile
	if path == "" {
		return catalog, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification catalog: %w", err)
	}
	defer f.Close()

	before := catalog.Len()
	if err := catalog.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to parse modification catalog %s: %w", path, err)
	}
	l.logger.Debug("Loaded modification catalog", slog.String("path", path), slog.Int("added", catalog.Len()-before))
	return catalog, nil
}

// findProjectConfig searches for pepdigest.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
