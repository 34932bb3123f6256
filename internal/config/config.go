package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/txview"
)

// DefaultBaseURL is the hosted payment backend.
const DefaultBaseURL = "https://instaedupay.onrender.com"

// Config is the resolved application configuration.
type Config struct {
	BaseURL       string
	DatabasePath  string
	ListenAddr    string
	PublicURL     string
	DefaultSchool string
	LogLevel      string
	LogFormat     string
	LogFile       string
	Timeout       time.Duration
	FetchCap      int
	DefaultLimit  int
	SchoolsSample int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("database.path", "~/.local/share/edupay/edupay.db")
	v.SetDefault("transactions.fetch_cap", txview.DefaultFetchCap)
	v.SetDefault("transactions.default_limit", query.DefaultLimit)
	v.SetDefault("callback.listen_addr", "127.0.0.1:5173")
	v.SetDefault("callback.public_url", "")
	v.SetDefault("payment.default_school", model.DefaultSchoolID)
	v.SetDefault("schools.sample_limit", 1)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "~/.local/share/edupay/edupay.log")
	v.SetDefault("tui.theme", "default")
}

// Load reads the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BaseURL:       v.GetString("api.base_url"),
		Timeout:       v.GetDuration("api.timeout"),
		DatabasePath:  DatabasePath(v),
		FetchCap:      v.GetInt("transactions.fetch_cap"),
		DefaultLimit:  v.GetInt("transactions.default_limit"),
		ListenAddr:    v.GetString("callback.listen_addr"),
		PublicURL:     v.GetString("callback.public_url"),
		DefaultSchool: v.GetString("payment.default_school"),
		SchoolsSample: v.GetInt("schools.sample_limit"),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
		LogFile:       ExpandPath(v.GetString("logging.file")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the client cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is required", common.ErrInvalidConfig)
	case c.Timeout < 0:
		return fmt.Errorf("%w: api.timeout cannot be negative", common.ErrInvalidConfig)
	case c.DatabasePath == "":
		return fmt.Errorf("%w: database.path is required", common.ErrInvalidConfig)
	case c.FetchCap < 1:
		return fmt.Errorf("%w: transactions.fetch_cap must be positive", common.ErrInvalidConfig)
	case c.DefaultLimit < 1:
		return fmt.Errorf("%w: transactions.default_limit must be positive", common.ErrInvalidConfig)
	case c.SchoolsSample < 1:
		return fmt.Errorf("%w: schools.sample_limit must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// CallbackOrigin is the origin the gateway redirects back to after payment.
func (c *Config) CallbackOrigin() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return "http://" + c.ListenAddr
}

// DefaultConfigDir returns $HOME/.config/edupay.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "edupay"), nil
}

// ExpandPath resolves a leading ~ to the home directory and expands $VAR
// references. Paths in the config file and EDUPAY_* variables go through it.
func ExpandPath(path string) string {
	rest, tilde := strings.CutPrefix(path, "~")
	if tilde && (rest == "" || rest[0] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + rest
		}
	}
	return os.ExpandEnv(path)
}

// DatabasePath is the expanded database.path from v.
func DatabasePath(v *viper.Viper) string {
	return ExpandPath(v.GetString("database.path"))
}
