package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

const AppName = "podcast-admin"

// Default is the configuration used for any value the file leaves out.
var Default = Config{
	Site: SiteConfig{
		BaseURL: "http://localhost:5000",
		Timeout: 30 * time.Second,
	},
	List: ListConfig{
		Debounce:            300 * time.Millisecond,
		PageSize:            6,
		LoadMoreDelay:       500 * time.Millisecond,
		NotificationTimeout: 5 * time.Second,
	},
	Cache: CacheConfig{
		Generation: "ups-podcast-v1",
		Manifest: []string{
			"/",
			"/static/css/style.css",
			"/static/css/home.css",
			"/static/js/script.js",
			"/static/js/videos.js",
			"/static/images/logo.webp",
			"/static/images/header.webp",
		},
		Listen: "127.0.0.1:8080",
	},
}

type Config struct {
	Site    SiteConfig  `yaml:"site"`
	List    ListConfig  `yaml:"list"`
	Cache   CacheConfig `yaml:"cache"`
	LogFile string      `yaml:"logFile,omitempty"`
}

// SiteConfig points at the podcast site's API.
type SiteConfig struct {
	BaseURL   string        `yaml:"baseURL" validate:"required,url"`
	CSRFToken string        `yaml:"csrfToken,omitempty"`
	Timeout   time.Duration `yaml:"timeout" validate:"min=0"`
}

// ListConfig tunes the episode list.
type ListConfig struct {
	Debounce            time.Duration `yaml:"debounce" validate:"min=0"`
	PageSize            int           `yaml:"pageSize" validate:"min=1"`
	LoadMoreDelay       time.Duration `yaml:"loadMoreDelay" validate:"min=0"`
	NotificationTimeout time.Duration `yaml:"notificationTimeout" validate:"min=0"`
}

// CacheConfig describes the offline cache. Changing Generation is the only
// way to invalidate what was cached before.
type CacheConfig struct {
	Generation string   `yaml:"generation" validate:"required,excludesall=/\\"`
	Manifest   []string `yaml:"manifest" validate:"required,unique,dive,required"`
	Origin     string   `yaml:"origin,omitempty" validate:"omitempty,url"`
	Dir        string   `yaml:"dir,omitempty"`
	Listen     string   `yaml:"listen" validate:"required"`
}

// NewFromReader parses YAML on top of Default and validates the result.
func NewFromReader(r io.Reader) (*Config, error) {
	c := Default
	c.Cache.Manifest = append([]string(nil), Default.Cache.Manifest...)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	return nil
}

// OriginURL is the site the cache fronts. It defaults to the site URL.
func (c *Config) OriginURL() (*url.URL, error) {
	raw := c.Cache.Origin
	if raw == "" {
		raw = c.Site.BaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", raw, err)
	}
	return u, nil
}

// CacheDir resolves where cache generations are stored.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return expandHome(c.Cache.Dir)
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// LogPath resolves the log file used while the terminal UI owns the screen.
func (c *Config) LogPath(configDir string) (string, error) {
	if c.LogFile != "" {
		return expandHome(c.LogFile)
	}
	return filepath.Join(configDir, AppName+".log"), nil
}

func expandHome(path string) (string, error) {
	if len(path) < 2 || path[:2] != "~/" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Manager loads and saves the configuration file.
type Manager struct {
	path   string
	config *Config
}

// DefaultPath is <user config dir>/podcast-admin/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// NewManager creates a manager for the file at path.
func NewManager(path string) *Manager {
	c := Default
	return &Manager{path: path, config: &c}
}

// Path returns the managed file.
func (m *Manager) Path() string {
	return m.path
}

// Dir returns the directory holding the managed file.
func (m *Manager) Dir() string {
	return filepath.Dir(m.path)
}

// Load reads the file, writing the defaults first if it does not exist.
func (m *Manager) Load() (*Config, error) {
	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		if err := m.Save(); err != nil {
			return nil, err
		}
		return m.config, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	c, err := NewFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	m.config = c
	return c, nil
}

// Save writes the current configuration.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m.config); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Config returns the last loaded configuration.
func (m *Manager) Config() *Config {
	return m.config
}

// SetConfig replaces the configuration that Save writes.
func (m *Manager) SetConfig(c *Config) {
	m.config = c
}
