// Package config handles the user's global hp configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/hp/config.yml.
type Config struct {
	ProfileID    string `yaml:"profile_id,omitempty"`
	OutputPath   string `yaml:"output_path,omitempty"`
	BackupPath   string `yaml:"backup_path,omitempty"`
	ArchivePath  string `yaml:"archive_path,omitempty"`  // Empty disables the scrape archive
	SiteSource   string `yaml:"site_source,omitempty"`   // Directory, base URL, or .json/.toml document
	TemplatePath string `yaml:"template_path,omitempty"` // Empty uses the built-in template
	MaxAttempts  int    `yaml:"max_attempts,omitempty"`  // Fetch attempts per listing page
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "hp"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DotEnvFile is loaded from the working directory at startup.
	DotEnvFile = ".env"
)

// Defaults applied after the file and environment.
const (
	DefaultOutputPath = "publications.json"
	DefaultBackupPath = "publications.backup.json"
	DefaultSiteSource = "config"
)

// Environment variables that override file values.
const (
	EnvProfileID    = "HP_PROFILE_ID"
	EnvOutputPath   = "HP_OUTPUT_PATH"
	EnvBackupPath   = "HP_BACKUP_PATH"
	EnvArchivePath  = "HP_ARCHIVE_PATH"
	EnvSiteSource   = "HP_SITE_SOURCE"
	EnvTemplatePath = "HP_TEMPLATE_PATH"
	EnvMaxAttempts  = "HP_MAX_ATTEMPTS"
)

// ErrInvalidConfig is returned when a configured value cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/hp/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the global config file, applies environment overrides and
// fills defaults. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: max_attempts must not be negative", ErrInvalidConfig)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set and
// non-empty.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{EnvProfileID, &c.ProfileID},
		{EnvOutputPath, &c.OutputPath},
		{EnvBackupPath, &c.BackupPath},
		{EnvArchivePath, &c.ArchivePath},
		{EnvSiteSource, &c.SiteSource},
		{EnvTemplatePath, &c.TemplatePath},
	}
	for _, s := range strs {
		if v, ok := lookup(s.name); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup(EnvMaxAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvMaxAttempts, v)
		}
		c.MaxAttempts = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath
	}
	if c.BackupPath == "" {
		c.BackupPath = DefaultBackupPath
	}
	if c.SiteSource == "" {
		c.SiteSource = DefaultSiteSource
	}

	c.OutputPath = ExpandTilde(c.OutputPath)
	c.BackupPath = ExpandTilde(c.BackupPath)
	c.ArchivePath = ExpandTilde(c.ArchivePath)
	c.TemplatePath = ExpandTilde(c.TemplatePath)
	if !strings.Contains(c.SiteSource, "://") {
		c.SiteSource = ExpandTilde(c.SiteSource)
	}
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set win; missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DotEnvFile}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// HelpfulConfigMessage explains where configuration lives.
func HelpfulConfigMessage() string {
	configPath := Path()
	return fmt.Sprintf(`Tip: create %s to set defaults:
  mkdir -p %s
  echo 'profile_id: YOUR_PROFILE_ID' > %s

Environment variables (%s, %s, ...) and a %s file override it.`,
		configPath,
		filepath.Dir(configPath),
		configPath,
		EnvProfileID, EnvSiteSource, DotEnvFile)
}
