package cmd

import (
	"testing"
)

func TestNewSetupConfigFromCmd_Defaults(t *testing.T) {
	sc := newSetupConfigFromCmd(setupCmd)

	if sc.target != TargetContainer {
		t.Errorf("target = %q, want %q", sc.target, TargetContainer)
	}
	if sc.clonePokyLocation != TargetContainer {
		t.Errorf("clonePokyLocation = %q, want %q", sc.clonePokyLocation, TargetContainer)
	}
	if sc.forceRecreate || sc.buildImage || sc.clonePoky || sc.autoInstall {
		t.Error("boolean flags should default to false")
	}
}

func TestNewSetupConfigFromCmd_ReadsFlags(t *testing.T) {
	flags := map[string]string{
		"target":       TargetHost,
		"container":    "test-box",
		"machine":      "qemux86-64",
		"poky-branch":  "scarthgap",
		"target-image": "core-image-sato",
	}
	for name, value := range flags {
		if err := setupCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("failed to set flag %s: %v", name, err)
		}
	}
	if err := setupCmd.Flags().Set("build-image", "true"); err != nil {
		t.Fatalf("failed to set flag build-image: %v", err)
	}
	defer resetSetupFlags(t)

	sc := newSetupConfigFromCmd(setupCmd)

	if sc.target != TargetHost {
		t.Errorf("target = %q, want %q", sc.target, TargetHost)
	}
	if sc.container != "test-box" {
		t.Errorf("container = %q, want %q", sc.container, "test-box")
	}
	if sc.machine != "qemux86-64" {
		t.Errorf("machine = %q, want %q", sc.machine, "qemux86-64")
	}
	if sc.pokyBranch != "scarthgap" {
		t.Errorf("pokyBranch = %q, want %q", sc.pokyBranch, "scarthgap")
	}
	if sc.targetImage != "core-image-sato" {
		t.Errorf("targetImage = %q, want %q", sc.targetImage, "core-image-sato")
	}
	if !sc.buildImage {
		t.Error("buildImage should be true")
	}
}

// resetSetupFlags restores setup flags to their defaults so tests don't
// leak state into each other.
func resetSetupFlags(t *testing.T) {
	t.Helper()
	defaults := map[string]string{
		"target":       TargetContainer,
		"container":    "",
		"machine":      "",
		"poky-branch":  "",
		"target-image": "",
		"build-image":  "false",
	}
	for name, value := range defaults {
		if err := setupCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("failed to reset flag %s: %v", name, err)
		}
	}
}

func TestSetupCommand_FlagRegistration(t *testing.T) {
	required := []string{
		"target", "container", "image", "user", "force", "skip-tool-check",
		"auto-install", "install-yocto-deps", "clone-poky", "clone-poky-location",
		"poky-dir", "poky-url", "poky-branch", "poky-local", "yocto-release",
		"meta-layers", "build-image", "target-image", "machine",
		"enable-hashserve", "run-qemu",
	}

	for _, name := range required {
		if setupCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected setup flag %q to be registered", name)
		}
	}
}
