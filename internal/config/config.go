package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Theme          string          `yaml:"theme"`
	LogLevel       string          `yaml:"log_level"`
	PlanPatterns   []string        `yaml:"plan_patterns"`
	ProjectMarkers []string        `yaml:"project_markers"`
	IgnoreDirs     []string        `yaml:"ignore_dirs"`
	Selection      SelectionConfig `yaml:"selection"`
	Web            WebConfig       `yaml:"web"`
}

// SelectionConfig controls how the selection cursor reacts to tree rebuilds.
type SelectionConfig struct {
	// ClearDangling clears the cursor when a rebuild drops the selected node.
	ClearDangling bool `yaml:"clear_dangling"`
}

type WebConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// IsEnabled reports whether the web API should start. Absent means enabled.
func (w WebConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

var (
	defaultPlanPatterns   = []string{"plan.txt", "*.plan", "*.plan.md", "*.plan.yaml", "*.testplan"}
	defaultProjectMarkers = []string{".git", "go.mod", "package.json", ".plantree"}
	defaultIgnoreDirs     = []string{".git", "node_modules", "vendor"}
)

func DefaultConfig() Config {
	return Config{
		Theme:          "mocha",
		LogLevel:       "info",
		PlanPatterns:   append([]string(nil), defaultPlanPatterns...),
		ProjectMarkers: append([]string(nil), defaultProjectMarkers...),
		IgnoreDirs:     append([]string(nil), defaultIgnoreDirs...),
		Web: WebConfig{
			Bind: "127.0.0.1",
		},
	}
}

func Load() (Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFromDir loads config.yaml from the given directory.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills fields an explicit but empty config value left blank.
func (c *Config) applyDefaults() {
	if c.Theme == "" {
		c.Theme = "mocha"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.PlanPatterns) == 0 {
		c.PlanPatterns = append([]string(nil), defaultPlanPatterns...)
	}
	if len(c.ProjectMarkers) == 0 {
		c.ProjectMarkers = append([]string(nil), defaultProjectMarkers...)
	}
	if len(c.IgnoreDirs) == 0 {
		c.IgnoreDirs = append([]string(nil), defaultIgnoreDirs...)
	}
	if c.Web.Bind == "" {
		c.Web.Bind = "127.0.0.1"
	}
}

// IsPlanFile reports whether the file's basename matches a plan pattern.
// Malformed patterns never match.
func (c *Config) IsPlanFile(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.PlanPatterns {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// IsIgnoredDir reports whether a directory name is skipped during refresh.
func (c *Config) IsIgnoredDir(name string) bool {
	for _, dir := range c.IgnoreDirs {
		if strings.EqualFold(dir, name) {
			return true
		}
	}
	return false
}

// ConfigDir returns the directory holding config.yaml and the project store.
func ConfigDir() string {
	return filepath.Dir(getConfigPath())
}

func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "plantree", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "plantree", "config.yaml")
	}

	return filepath.Join(home, ".config", "plantree", "config.yaml")
}
