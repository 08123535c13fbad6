// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/zorak1103/pokybox/internal/repo"
)

// Common errors
var (
	Err = errors.New("config error")
)

// Config represents the application configuration
type Config struct {
	Container    ContainerConfig    `mapstructure:"container"`
	Docker       DockerConfig       `mapstructure:"docker"`
	Poky         PokyConfig         `mapstructure:"poky"`
	Build        BuildConfig        `mapstructure:"build"`
	Notification NotificationConfig `mapstructure:"notification"`
	Output       OutputConfig       `mapstructure:"output"`

	// ConfigFilePath stores the path to the loaded config file (not marshaled from YAML)
	ConfigFilePath string `mapstructure:"-"`
}

// ContainerConfig describes the container used as the build environment.
type ContainerConfig struct {
	Name  string `mapstructure:"name"`
	Image string `mapstructure:"image"`
	User  string `mapstructure:"user"`
}

// DockerConfig contains Docker-specific settings
type DockerConfig struct {
	SocketPath string `mapstructure:"socket_path"`
}

// PokyConfig describes where the poky tree lives and which branch to track.
type PokyConfig struct {
	Dir         string `mapstructure:"dir"`
	URL         string `mapstructure:"url"`
	Branch      string `mapstructure:"branch"`
	LocalBranch string `mapstructure:"local_branch"`
	Release     string `mapstructure:"release"`
}

// BuildConfig contains bitbake build settings.
type BuildConfig struct {
	TargetImage     string   `mapstructure:"target_image"`
	Machine         string   `mapstructure:"machine"`
	MetaLayers      []string `mapstructure:"meta_layers"`
	EnableHashserve bool     `mapstructure:"enable_hashserve"`
	RunQEMU         bool     `mapstructure:"run_qemu"`
}

// NotificationConfig contains notification settings
type NotificationConfig struct {
	ShoutrrURL string `mapstructure:"shoutrrr_url"` // Shoutrrr URL format
	Enabled    bool   `mapstructure:"enabled"`
}

// OutputConfig contains output path settings
type OutputConfig struct {
	LogBaseDir string `mapstructure:"log_base_dir"`
	StateFile  string `mapstructure:"state_file"`
}

// autoDetectDockerSocket determines the Docker socket path based on environment and platform.
func autoDetectDockerSocket() string {
	if os.Getenv("DOCKER_HOST") != "" {
		return os.Getenv("DOCKER_HOST")
	}
	// Check for Unix socket
	if _, err := os.Stat("/var/run/docker.sock"); err == nil {
		return "unix:///var/run/docker.sock"
	}
	// Default to Windows named pipe if Unix socket not found
	return "npipe:////./pipe/docker_engine"
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pokybox")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pokybox")
		v.AddConfigPath("/etc/pokybox")
	}

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			configFile := v.ConfigFileUsed()
			if configFile == "" {
				configFile = configPath
			}
			return nil, fmt.Errorf("error reading config file from %s: %w", configFile, err)
		}
		// Config file not found; using defaults and env vars
	}

	// Environment variable support
	v.SetEnvPrefix("POKYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("error unmarshaling config from %s: %w", configFile, err)
	}

	// Store the config file path in the struct (DI approach, no global state)
	cfg.ConfigFilePath = v.ConfigFileUsed()

	// Auto-detect Docker socket if not specified
	if cfg.Docker.SocketPath == "" {
		cfg.Docker.SocketPath = autoDetectDockerSocket()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("config validation failed for %s: %w", configFile, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Container defaults
	v.SetDefault("container.name", "")
	v.SetDefault("container.image", "ubuntu:22.04")
	v.SetDefault("container.user", "yocto")

	// Docker defaults
	if os.Getenv("DOCKER_HOST") != "" {
		v.SetDefault("docker.socket_path", os.Getenv("DOCKER_HOST"))
	} else {
		// Default Docker socket paths by platform
		if _, err := os.Stat("/var/run/docker.sock"); err == nil {
			v.SetDefault("docker.socket_path", "unix:///var/run/docker.sock")
		} else {
			v.SetDefault("docker.socket_path", "npipe:////./pipe/docker_engine")
		}
	}

	// Poky defaults
	v.SetDefault("poky.dir", "/home/yocto/poky")
	v.SetDefault("poky.url", repo.DefaultPokyURL)
	v.SetDefault("poky.branch", "styhead")
	v.SetDefault("poky.local_branch", "")
	v.SetDefault("poky.release", "")

	// Build defaults
	v.SetDefault("build.target_image", "core-image-minimal")
	v.SetDefault("build.machine", "") // Required for AutomaticEnv to work
	v.SetDefault("build.meta_layers", []string{})
	v.SetDefault("build.enable_hashserve", false)
	v.SetDefault("build.run_qemu", false)

	// Notification defaults
	v.SetDefault("notification.shoutrrr_url", "") // Required for AutomaticEnv to work
	v.SetDefault("notification.enabled", false)

	// Output defaults
	v.SetDefault("output.log_base_dir", "./logs")
	v.SetDefault("output.state_file", "./state.json")
}

// Validate ensures all required fields are set and values are within valid ranges.
func (c *Config) Validate() error {
	configSource := c.ConfigFilePath
	if configSource == "" {
		configSource = "(defaults/environment)"
	}

	requiredFields := []struct {
		value   string
		message string
	}{
		{c.Docker.SocketPath, "docker.socket_path is required in config %s"},
		{c.Poky.Dir, "poky.dir is required in config %s"},
		{c.Poky.URL, "poky.url is required in config %s"},
		{c.Poky.Branch, "poky.branch is required in config %s"},
		{c.Build.TargetImage, "build.target_image is required in config %s"},
		{c.Output.LogBaseDir, "output.log_base_dir is required in config %s"},
		{c.Output.StateFile, "output.state_file is required in config %s"},
	}

	for _, field := range requiredFields {
		if field.value == "" {
			return fmt.Errorf(field.message, configSource)
		}
	}

	if c.Container.User == "" {
		return fmt.Errorf("container.user is required in config %s", configSource)
	}

	return nil
}

// LocalBranchName returns the local branch to create when checking out the
// tracked poky branch. Defaults to "my-<branch>" when unset.
func (c *PokyConfig) LocalBranchName() string {
	if c.LocalBranch != "" {
		return c.LocalBranch
	}
	return "my-" + c.Branch
}

// ReleaseName returns the Yocto release used to pin meta layer branches,
// falling back to the tracked poky branch.
func (c *PokyConfig) ReleaseName() string {
	if c.Release != "" {
		return c.Release
	}
	return c.Branch
}
