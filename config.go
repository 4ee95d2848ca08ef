package chores

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Config holds the settings shared by the CLI and the server.
// Precedence: defaults < config file < environment < flags.
type Config struct {
	Workspace   string        `mapstructure:"workspace" env:"CHORES_WORKSPACE"`
	Endpoint    string        `mapstructure:"endpoint" env:"CHORES_ENDPOINT"`
	Offline     bool          `mapstructure:"offline" env:"CHORES_OFFLINE"`
	Timeout     time.Duration `mapstructure:"timeout" env:"CHORES_TIMEOUT"`
	MaxTries    uint          `mapstructure:"max_tries" env:"CHORES_MAX_TRIES"`
	CatalogFile string        `mapstructure:"catalog" env:"CHORES_CATALOG"`
	WindowStart string        `mapstructure:"window_start" env:"CHORES_WINDOW_START"`
	WindowEnd   string        `mapstructure:"window_end" env:"CHORES_WINDOW_END"`
	ServerAddr  string        `mapstructure:"server_addr" env:"CHORES_ADDR"`
	ServerDB    string        `mapstructure:"server_db" env:"CHORES_DB"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	w := DefaultWindow()
	return &Config{
		Endpoint:    DefaultEndpoint,
		Timeout:     10 * time.Second,
		MaxTries:    5,
		WindowStart: FormatDate(w.Start),
		WindowEnd:   FormatDate(w.End),
		ServerAddr:  ":8080",
		ServerDB:    "chores.db",
	}
}

// GlobalConfigPath is ~/.config/chores/config.yaml
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chores", "config.yaml")
}

// LoadConfig merges defaults, a YAML file and the environment. An empty
// path means the global config file, which may be absent.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = GlobalConfigPath()
	}
	if path != "" {
		if err := loadConfigFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

// Validate checks values that would otherwise fail later
func (c *Config) Validate() error {
	if _, err := c.TrackingWindow(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid config: timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxTries == 0 {
		return fmt.Errorf("invalid config: max_tries must be at least 1")
	}
	return nil
}

// TrackingWindow parses the configured window
func (c *Config) TrackingWindow() (Window, error) {
	return NewWindow(c.WindowStart, c.WindowEnd)
}

// RemoteEnabled reports whether the tracker should sync remotely
func (c *Config) RemoteEnabled() bool {
	return !c.Offline && c.Endpoint != ""
}

// TrackerOptions turns the config into Tracker options
func (c *Config) TrackerOptions(logger *log.Logger) ([]Option, error) {
	window, err := c.TrackingWindow()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithWindow(window),
		WithLogger(logger),
		WithSyncOptions(WithMaxTries(c.MaxTries)),
	}

	if c.CatalogFile != "" {
		catalog, err := LoadCatalog(c.CatalogFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCatalog(catalog))
	}

	if c.RemoteEnabled() {
		remote := NewRemoteStore(c.Endpoint,
			WithHTTPClient(&http.Client{Timeout: c.Timeout}),
			WithRemoteLogger(logger),
		)
		opts = append(opts, WithRemote(remote))
	}
	return opts, nil
}
