package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"filedesk-cli/internal/format"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (FILEDESK_SERVER -> server).
const EnvPrefix = "FILEDESK_"

// Config is the client configuration, corresponding to config.yaml.
type Config struct {
	// Server is the base URL of the file service.
	Server string `yaml:"server" koanf:"server" json:"server"`
	// DownloadDir receives downloaded files and the all-files archive.
	DownloadDir string `yaml:"download_dir" koanf:"download_dir" json:"download_dir"`
	// Format is the output format of scriptable commands (json|edn|text).
	Format string `yaml:"format" koanf:"format" json:"format"`
	Pretty bool   `yaml:"pretty" koanf:"pretty" json:"pretty"`
	// DebugLog, when set, is a file the TUI appends debug lines to.
	DebugLog string `yaml:"debug_log,omitempty" koanf:"debug_log" json:"debug_log,omitempty"`
	// Upload filters applied when a folder is expanded.
	Include []string `yaml:"include,omitempty" koanf:"include" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" koanf:"exclude" json:"exclude,omitempty"`
}

// DefaultConfig returns a Config pointing at a local service.
func DefaultConfig() *Config {
	return &Config{
		Server:      "http://localhost:8000",
		DownloadDir: ".",
		Format:      "json",
		Exclude:     append([]string(nil), DefaultExcludes...),
	}
}

// DefaultExcludes keeps VCS metadata and OS litter out of folder uploads.
var DefaultExcludes = []string{
	".git/**",
	"**/.DS_Store",
	"**/Thumbs.db",
}

// Dir is ~/.filedesk, or FILEDESK_CONFIG_DIR when set (keeps tests away from $HOME).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("FILEDESK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".filedesk"), nil
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads defaults, then the YAML file at path (if it exists), then
// FILEDESK_* environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return fmt.Errorf("server is required")
	}
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("invalid server %q: %w", c.Server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server %q: must be an http(s) URL", c.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server %q: missing host", c.Server)
	}
	if c.Format == "" || !format.Valid(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %s", c.Format, strings.Join(format.Formats, ", "))
	}
	if strings.TrimSpace(c.DownloadDir) == "" {
		return fmt.Errorf("download_dir is required")
	}
	return nil
}
