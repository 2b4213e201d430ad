// Package config loads the global devenv configuration.
//
// Precedence, lowest to highest: built-in defaults, the config file
// (~/.config/devenv/config.yaml by default), DEVENV_* environment
// variables. A .env file in the current directory is loaded into the
// process environment first, so per-project overrides of DEVENV_*
// variables work without exporting anything.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Err is the sentinel wrapped by all configuration errors.
var Err = errors.New("config error")

// Config is the global tool configuration. Project-level settings live in
// the .devenv.yaml manifest (internal/project), not here.
type Config struct {
	// Docker holds daemon connection settings.
	Docker DockerConfig `mapstructure:"docker"`

	// Defaults are fallbacks applied when a project manifest omits the
	// corresponding field.
	Defaults DefaultsConfig `mapstructure:"defaults"`

	// Teardown controls what the directory-exit hook does.
	Teardown TeardownConfig `mapstructure:"teardown"`

	// Notification configures optional build-completion notices.
	Notification NotificationConfig `mapstructure:"notification"`

	// ConfigFilePath records which file was loaded, for status output.
	// Empty when running on pure defaults.
	ConfigFilePath string `mapstructure:"-"`
}

// DockerConfig contains Docker daemon settings.
type DockerConfig struct {
	// Host overrides daemon endpoint detection (e.g. "unix:///run/user/1000/docker.sock").
	Host string `mapstructure:"host"`
}

// DefaultsConfig contains fallback values for manifest fields.
type DefaultsConfig struct {
	// BaseImage is the image the Gentoo recipe starts from.
	BaseImage string `mapstructure:"base_image"`

	// PortageImage provides the portage tree snapshot copied into the
	// build (the standard two-stage Gentoo container pattern).
	PortageImage string `mapstructure:"portage_image"`

	// Shell is the login shell for "devenv enter".
	Shell string `mapstructure:"shell"`

	// User is the unprivileged account created inside the image.
	User string `mapstructure:"user"`

	// Workdir is the in-container mount point for the project directory.
	Workdir string `mapstructure:"workdir"`
}

// TeardownConfig controls the exit-hook behavior.
type TeardownConfig struct {
	// KeepStopped makes "devenv down" (and the generated exit trap) stop
	// the container but keep it for faster re-entry, instead of removing it.
	KeepStopped bool `mapstructure:"keep_stopped"`
}

// NotificationConfig configures shoutrrr notifications.
type NotificationConfig struct {
	// Enabled turns build-completion notifications on.
	Enabled bool `mapstructure:"enabled"`

	// URL is a shoutrrr service URL (e.g. "telegram://token@telegram?chats=@channel").
	URL string `mapstructure:"url"`
}

// Load reads the global configuration. configFile may be empty, in which
// case the default location is used; a missing file is not an error (the
// defaults are a complete working configuration), but an unreadable or
// malformed one is.
func Load(configFile string) (*Config, error) {
	// Best effort: a .env in the working directory feeds DEVENV_* overrides.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("docker.host", "")
	v.SetDefault("defaults.base_image", "gentoo/stage3:latest")
	v.SetDefault("defaults.portage_image", "gentoo/portage:latest")
	v.SetDefault("defaults.shell", "/bin/bash")
	v.SetDefault("defaults.user", "dev")
	v.SetDefault("defaults.workdir", "/workspace")
	v.SetDefault("teardown.keep_stopped", false)
	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.url", "")

	v.SetEnvPrefix("DEVENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigPath()
	}

	loadedFrom := ""
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !os.IsNotExist(underlying(err)) {
				// An explicitly named file must exist; the default
				// location may simply not be set up yet.
				if explicit {
					return nil, fmt.Errorf("%w: reading %s: %v", Err, configFile, err)
				}
				if _, statErr := os.Stat(configFile); statErr == nil {
					return nil, fmt.Errorf("%w: reading %s: %v", Err, configFile, err)
				}
			}
		} else {
			loadedFrom = configFile
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", Err, err)
	}
	cfg.ConfigFilePath = loadedFrom

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for values that would produce confusing downstream
// failures if left to surface inside docker build or docker run.
func (c *Config) Validate() error {
	if c.Defaults.BaseImage == "" {
		return fmt.Errorf("%w: defaults.base_image must not be empty", Err)
	}
	if c.Defaults.Shell == "" || !strings.HasPrefix(c.Defaults.Shell, "/") {
		return fmt.Errorf("%w: defaults.shell %q must be an absolute path", Err, c.Defaults.Shell)
	}
	if c.Defaults.Workdir == "" || !strings.HasPrefix(c.Defaults.Workdir, "/") {
		return fmt.Errorf("%w: defaults.workdir %q must be an absolute path", Err, c.Defaults.Workdir)
	}
	if c.Notification.Enabled && c.Notification.URL == "" {
		return fmt.Errorf("%w: notification.enabled requires notification.url", Err)
	}
	return nil
}

// defaultConfigPath returns ~/.config/devenv/config.yaml, honoring
// XDG_CONFIG_HOME. Empty when no home directory can be determined.
func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devenv", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "devenv", "config.yaml")
}

// underlying unwraps viper's ConfigFileNotFoundError-style wrapping down
// to the os error, if any.
func underlying(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
