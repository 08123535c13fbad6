package cmd

import (
	"strings"
	"testing"

	"github.com/zorak1103/pokybox/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Container: config.ContainerConfig{Name: "kria-build", Image: "ubuntu:22.04", User: "yocto"},
		Docker:    config.DockerConfig{SocketPath: "unix:///var/run/docker.sock"},
		Poky: config.PokyConfig{
			Dir:    "/home/yocto/poky",
			URL:    "git://git.yoctoproject.org/poky",
			Branch: "styhead",
		},
		Build:  config.BuildConfig{TargetImage: "core-image-minimal", Machine: "k26-smk-kr"},
		Output: config.OutputConfig{LogBaseDir: "./logs", StateFile: "./state.json"},
	}
}

func TestNewRunPlan_ConfigDefaults(t *testing.T) {
	plan, err := newRunPlan(testConfig(), newTestSetupConfig())
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}

	if plan.target != TargetContainer {
		t.Errorf("target = %q, want %q", plan.target, TargetContainer)
	}
	if plan.containerName != "kria-build" {
		t.Errorf("containerName = %q, want %q", plan.containerName, "kria-build")
	}
	if plan.user != "yocto" {
		t.Errorf("user = %q, want %q", plan.user, "yocto")
	}
	if plan.machine != "k26-smk-kr" {
		t.Errorf("machine = %q, want %q", plan.machine, "k26-smk-kr")
	}
	if plan.pokyLocal != "my-styhead" {
		t.Errorf("pokyLocal = %q, want %q", plan.pokyLocal, "my-styhead")
	}
	if plan.release != "styhead" {
		t.Errorf("release = %q, want %q", plan.release, "styhead")
	}
}

func TestNewRunPlan_FlagsOverrideConfig(t *testing.T) {
	sc := newTestSetupConfig()
	sc.container = "other-box"
	sc.machine = "qemux86-64"
	sc.pokyBranch = "scarthgap"
	sc.targetImage = "core-image-full-cmdline"

	plan, err := newRunPlan(testConfig(), sc)
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}

	if plan.containerName != "other-box" {
		t.Errorf("containerName = %q, want %q", plan.containerName, "other-box")
	}
	if plan.machine != "qemux86-64" {
		t.Errorf("machine = %q, want %q", plan.machine, "qemux86-64")
	}
	if plan.pokyBranch != "scarthgap" {
		t.Errorf("pokyBranch = %q, want %q", plan.pokyBranch, "scarthgap")
	}
	if plan.pokyLocal != "my-scarthgap" {
		t.Errorf("pokyLocal = %q, want %q", plan.pokyLocal, "my-scarthgap")
	}
	if plan.targetImage != "core-image-full-cmdline" {
		t.Errorf("targetImage = %q, want %q", plan.targetImage, "core-image-full-cmdline")
	}
}

func TestNewRunPlan_MachineRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Build.Machine = ""

	_, err := newRunPlan(cfg, newTestSetupConfig())
	if err == nil {
		t.Fatal("expected error when machine is unset")
	}
	if !strings.Contains(err.Error(), "machine is required") {
		t.Errorf("error = %v, want machine requirement message", err)
	}
}

func TestNewRunPlan_ContainerNameRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Container.Name = ""

	_, err := newRunPlan(cfg, newTestSetupConfig())
	if err == nil {
		t.Fatal("expected error when container name is unset")
	}
	if !strings.Contains(err.Error(), "container name is required") {
		t.Errorf("error = %v, want container name requirement message", err)
	}
}

func TestNewRunPlan_HostTargetNeedsNoContainer(t *testing.T) {
	cfg := testConfig()
	cfg.Container.Name = ""

	sc := newTestSetupConfig()
	sc.target = TargetHost

	plan, err := newRunPlan(cfg, sc)
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}
	if plan.envLabel() != TargetHost {
		t.Errorf("envLabel() = %q, want %q", plan.envLabel(), TargetHost)
	}
}

func TestNewRunPlan_InvalidTarget(t *testing.T) {
	sc := newTestSetupConfig()
	sc.target = "vm"

	_, err := newRunPlan(testConfig(), sc)
	if err == nil {
		t.Fatal("expected error for invalid target")
	}
}

func TestNewRunPlan_InvalidCloneLocation(t *testing.T) {
	sc := newTestSetupConfig()
	sc.clonePokyLocation = "remote"

	_, err := newRunPlan(testConfig(), sc)
	if err == nil {
		t.Fatal("expected error for invalid clone-poky-location")
	}
}

func TestNewRunPlan_BoolFlagsCombineWithConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Build.EnableHashserve = true

	plan, err := newRunPlan(cfg, newTestSetupConfig())
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}
	if !plan.enableHashserve {
		t.Error("enableHashserve should be inherited from config")
	}

	sc := newTestSetupConfig()
	sc.runQEMU = true
	plan, err = newRunPlan(testConfig(), sc)
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}
	if !plan.runQEMU {
		t.Error("runQEMU flag should be honored")
	}
}

func TestResolveLayers_DefaultsForRelease(t *testing.T) {
	plan, err := newRunPlan(testConfig(), newTestSetupConfig())
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}

	if len(plan.metaLayers) == 0 {
		t.Fatal("expected default layers for the release")
	}
	names := make(map[string]bool)
	for _, layer := range plan.metaLayers {
		names[layer.Name] = true
		if layer.Ref == "" {
			t.Errorf("default layer %s should be pinned to a release ref", layer.Name)
		}
	}
	if !names["meta-xilinx"] || !names["meta-kria"] {
		t.Errorf("default layers = %v, want meta-xilinx and meta-kria", names)
	}
}

func TestResolveLayers_ExplicitSpecs(t *testing.T) {
	sc := newTestSetupConfig()
	sc.metaLayers = []string{"https://github.com/openembedded/meta-openembedded.git#styhead"}

	plan, err := newRunPlan(testConfig(), sc)
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}

	if len(plan.metaLayers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(plan.metaLayers))
	}
	layer := plan.metaLayers[0]
	if layer.Name != "meta-openembedded" {
		t.Errorf("layer name = %q, want %q", layer.Name, "meta-openembedded")
	}
	if layer.Ref != "styhead" {
		t.Errorf("layer ref = %q, want %q", layer.Ref, "styhead")
	}
}

func TestLayerPaths(t *testing.T) {
	plan, err := newRunPlan(testConfig(), newTestSetupConfig())
	if err != nil {
		t.Fatalf("newRunPlan() error = %v", err)
	}

	paths := layerPaths(plan.metaLayers)
	if len(paths) != len(plan.metaLayers) {
		t.Fatalf("expected %d paths, got %d", len(plan.metaLayers), len(paths))
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, "sources/") {
			t.Errorf("layer path %q should be under sources/", p)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"first wins", []string{"a", "b"}, "a"},
		{"skips empty", []string{"", "b"}, "b"},
		{"all empty", []string{"", ""}, ""},
		{"no values", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstNonEmpty(tt.values...); got != tt.want {
				t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}
