package cmd

import "github.com/spf13/cobra"

// Provisioning targets.
const (
	TargetHost      = "host"
	TargetContainer = "container"
)

// setupConfig holds all setup-specific configuration flags.
// This structure replaces package-level global variables
// to enable better testing and dependency injection.
type setupConfig struct {
	// target selects where to provision: "container" (default) or "host".
	target string

	// container is the name of the Docker container used as the build
	// environment. Overrides container.name from the config file.
	container string

	// image is the Docker image used when the container must be created.
	image string

	// user is the unprivileged account that runs bitbake.
	user string

	// forceRecreate removes an existing container before creating a fresh one.
	forceRecreate bool

	// skipToolCheck bypasses the host tool version verification.
	skipToolCheck bool

	// autoInstall installs missing tools when the version check fails,
	// then re-runs the check.
	autoInstall bool

	// installYoctoDeps installs the full Yocto host package set up front.
	installYoctoDeps bool

	// clonePoky enables cloning the poky repository.
	clonePoky bool

	// clonePokyLocation selects where the clone runs: "container" executes
	// git inside the build environment, "host" clones with the embedded
	// git implementation on the host side.
	clonePokyLocation string

	// pokyDir, pokyURL, pokyBranch, pokyLocal override the poky.* config keys.
	pokyDir    string
	pokyURL    string
	pokyBranch string
	pokyLocal  string

	// yoctoRelease pins meta layer branches; defaults to the poky branch.
	yoctoRelease string

	// metaLayers lists extra layers to clone, as url#ref entries.
	metaLayers []string

	// buildImage runs bitbake for the target image after provisioning.
	buildImage bool

	// targetImage is the bitbake image recipe to build.
	targetImage string

	// machine is the bitbake MACHINE written to local.conf. Required.
	machine string

	// enableHashserve appends hash equivalence directives to local.conf.
	enableHashserve bool

	// runQEMU boots the built image in QEMU after a successful build.
	runQEMU bool

	// verbose enables detailed output during setup operations.
	// Inherited from root command but included here for explicit dependency tracking.
	verbose bool
}

// newSetupConfigFromCmd creates a new setupConfig from Cobra command flags.
// This function reads flag values directly from the command, avoiding global state.
func newSetupConfigFromCmd(cmd *cobra.Command) *setupConfig {
	// GetBool/GetString never return errors when flags are properly defined
	target, _ := cmd.Flags().GetString("target")
	container, _ := cmd.Flags().GetString("container")
	image, _ := cmd.Flags().GetString("image")
	user, _ := cmd.Flags().GetString("user")
	forceRecreate, _ := cmd.Flags().GetBool("force")
	skipToolCheck, _ := cmd.Flags().GetBool("skip-tool-check")
	autoInstall, _ := cmd.Flags().GetBool("auto-install")
	installYoctoDeps, _ := cmd.Flags().GetBool("install-yocto-deps")
	clonePoky, _ := cmd.Flags().GetBool("clone-poky")
	clonePokyLocation, _ := cmd.Flags().GetString("clone-poky-location")
	pokyDir, _ := cmd.Flags().GetString("poky-dir")
	pokyURL, _ := cmd.Flags().GetString("poky-url")
	pokyBranch, _ := cmd.Flags().GetString("poky-branch")
	pokyLocal, _ := cmd.Flags().GetString("poky-local")
	yoctoRelease, _ := cmd.Flags().GetString("yocto-release")
	metaLayers, _ := cmd.Flags().GetStringSlice("meta-layers")
	buildImage, _ := cmd.Flags().GetBool("build-image")
	targetImage, _ := cmd.Flags().GetString("target-image")
	machine, _ := cmd.Flags().GetString("machine")
	enableHashserve, _ := cmd.Flags().GetBool("enable-hashserve")
	runQEMU, _ := cmd.Flags().GetBool("run-qemu")

	return &setupConfig{
		target:            target,
		container:         container,
		image:             image,
		user:              user,
		forceRecreate:     forceRecreate,
		skipToolCheck:     skipToolCheck,
		autoInstall:       autoInstall,
		installYoctoDeps:  installYoctoDeps,
		clonePoky:         clonePoky,
		clonePokyLocation: clonePokyLocation,
		pokyDir:           pokyDir,
		pokyURL:           pokyURL,
		pokyBranch:        pokyBranch,
		pokyLocal:         pokyLocal,
		yoctoRelease:      yoctoRelease,
		metaLayers:        metaLayers,
		buildImage:        buildImage,
		targetImage:       targetImage,
		machine:           machine,
		enableHashserve:   enableHashserve,
		runQEMU:           runQEMU,
		verbose:           verbose, // Still using global from root command
	}
}

// newTestSetupConfig creates a setupConfig for testing with default values.
// This helps tests avoid depending on Cobra commands or global variables.
func newTestSetupConfig() *setupConfig {
	return &setupConfig{
		target:            TargetContainer,
		clonePokyLocation: TargetContainer,
	}
}
