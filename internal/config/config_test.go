package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Check defaults
	assert.Equal(t, "ubuntu:22.04", cfg.Container.Image)
	assert.Equal(t, "yocto", cfg.Container.User)
	assert.Equal(t, "/home/yocto/poky", cfg.Poky.Dir)
	assert.Equal(t, "git://git.yoctoproject.org/poky", cfg.Poky.URL)
	assert.Equal(t, "styhead", cfg.Poky.Branch)
	assert.Equal(t, "core-image-minimal", cfg.Build.TargetImage)
	assert.Equal(t, "./logs", cfg.Output.LogBaseDir)
	assert.Equal(t, "./state.json", cfg.Output.StateFile)
	assert.False(t, cfg.Build.EnableHashserve)
	assert.False(t, cfg.Notification.Enabled)
}

func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("POKYBOX_BUILD_MACHINE", "k26-smk-kr")  // nolint:errcheck,gosec
	os.Setenv("POKYBOX_POKY_BRANCH", "scarthgap")     // nolint:errcheck,gosec
	defer os.Unsetenv("POKYBOX_BUILD_MACHINE")        // nolint:errcheck
	defer os.Unsetenv("POKYBOX_POKY_BRANCH")          // nolint:errcheck

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "k26-smk-kr", cfg.Build.Machine)
	assert.Equal(t, "scarthgap", cfg.Poky.Branch)
}

func TestLoad_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pokybox.yaml")

	configContent := `container:
  name: kria-build
  image: ubuntu:24.04
  user: builder
docker:
  socket_path: unix:///test/docker.sock
poky:
  dir: /work/poky
  url: https://git.yoctoproject.org/poky
  branch: scarthgap
  local_branch: dev-scarthgap
build:
  target_image: core-image-full-cmdline
  machine: qemux86-64
  meta_layers:
    - https://github.com/Xilinx/meta-xilinx.git#rel-v2024.2
  enable_hashserve: true
notification:
  enabled: true
  shoutrrr_url: generic://test
output:
  log_base_dir: /test/logs
  state_file: /test/state.json
`
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	assert.NoError(t, err)

	cfg, err := Load(configPath)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "kria-build", cfg.Container.Name)
	assert.Equal(t, "ubuntu:24.04", cfg.Container.Image)
	assert.Equal(t, "builder", cfg.Container.User)
	assert.Equal(t, "unix:///test/docker.sock", cfg.Docker.SocketPath)
	assert.Equal(t, "/work/poky", cfg.Poky.Dir)
	assert.Equal(t, "scarthgap", cfg.Poky.Branch)
	assert.Equal(t, "dev-scarthgap", cfg.Poky.LocalBranch)
	assert.Equal(t, "core-image-full-cmdline", cfg.Build.TargetImage)
	assert.Equal(t, "qemux86-64", cfg.Build.Machine)
	assert.Len(t, cfg.Build.MetaLayers, 1)
	assert.True(t, cfg.Build.EnableHashserve)
	assert.True(t, cfg.Notification.Enabled)
	assert.Equal(t, "generic://test", cfg.Notification.ShoutrrURL)
	assert.Equal(t, "/test/logs", cfg.Output.LogBaseDir)
	assert.Equal(t, "/test/state.json", cfg.Output.StateFile)
	assert.Equal(t, configPath, cfg.ConfigFilePath)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/path/pokybox.yaml")
	assert.Error(t, err)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pokybox.yaml")

	configContent := `poky:
  branch: test
  invalid yaml content [[[
`
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	assert.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing docker socket",
			mutate:  func(c *Config) { c.Docker.SocketPath = "" },
			wantErr: "docker.socket_path",
		},
		{
			name:    "missing poky dir",
			mutate:  func(c *Config) { c.Poky.Dir = "" },
			wantErr: "poky.dir",
		},
		{
			name:    "missing poky url",
			mutate:  func(c *Config) { c.Poky.URL = "" },
			wantErr: "poky.url",
		},
		{
			name:    "missing poky branch",
			mutate:  func(c *Config) { c.Poky.Branch = "" },
			wantErr: "poky.branch",
		},
		{
			name:    "missing target image",
			mutate:  func(c *Config) { c.Build.TargetImage = "" },
			wantErr: "build.target_image",
		},
		{
			name:    "missing container user",
			mutate:  func(c *Config) { c.Container.User = "" },
			wantErr: "container.user",
		},
		{
			name:    "missing state file",
			mutate:  func(c *Config) { c.Output.StateFile = "" },
			wantErr: "output.state_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestPokyConfig_LocalBranchName(t *testing.T) {
	tests := []struct {
		name string
		cfg  PokyConfig
		want string
	}{
		{
			name: "explicit local branch",
			cfg:  PokyConfig{Branch: "styhead", LocalBranch: "work"},
			want: "work",
		},
		{
			name: "derived from tracked branch",
			cfg:  PokyConfig{Branch: "styhead"},
			want: "my-styhead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.LocalBranchName())
		})
	}
}

func TestPokyConfig_ReleaseName(t *testing.T) {
	assert.Equal(t, "scarthgap", (&PokyConfig{Branch: "styhead", Release: "scarthgap"}).ReleaseName())
	assert.Equal(t, "styhead", (&PokyConfig{Branch: "styhead"}).ReleaseName())
}

func validConfig() *Config {
	return &Config{
		Container: ContainerConfig{Name: "kria-build", Image: "ubuntu:22.04", User: "yocto"},
		Docker:    DockerConfig{SocketPath: "unix:///var/run/docker.sock"},
		Poky: PokyConfig{
			Dir:    "/home/yocto/poky",
			URL:    "git://git.yoctoproject.org/poky",
			Branch: "styhead",
		},
		Build:  BuildConfig{TargetImage: "core-image-minimal", Machine: "qemux86-64"},
		Output: OutputConfig{LogBaseDir: "./logs", StateFile: "./state.json"},
	}
}
