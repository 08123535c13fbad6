package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zorak1103/pokybox/internal/bitbake"
	"github.com/zorak1103/pokybox/internal/buildconf"
	"github.com/zorak1103/pokybox/internal/deps"
	"github.com/zorak1103/pokybox/internal/docker"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/notification"
	"github.com/zorak1103/pokybox/internal/repo"
	"github.com/zorak1103/pokybox/internal/runlog"
	"github.com/zorak1103/pokybox/internal/state"
	"github.com/zorak1103/pokybox/internal/sysinfo"
	"github.com/zorak1103/pokybox/internal/vercheck"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision a Yocto build environment and optionally build an image",
	Long: `Setup provisions a complete Yocto/bitbake build environment.

This command:
  1. Ensures the build container is running (or targets the host directly)
  2. Verifies host tools against Yocto's minimum versions
  3. Installs the Yocto host package set when requested
  4. Clones poky and the configured meta layers
  5. With --build-image, writes MACHINE and image settings into local.conf,
     runs bitbake and verifies the produced artifacts

Every step is idempotent: re-running setup skips work that is already done.`,
	Example: `  # Provision the configured container and build the default image
  pokybox setup --machine k26-smk-kr --clone-poky --install-yocto-deps --build-image

  # Reuse an existing container, only verify tools
  pokybox setup --container kria-build --machine qemux86-64

  # Recreate the container from scratch
  pokybox setup --machine k26-smk-kr --force --auto-install --clone-poky

  # Provision the host instead of a container
  pokybox setup --target host --machine qemux86-64 --clone-poky --clone-poky-location host`,
	RunE: runSetup,
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(setupCmd)

	// Define flags without global variables - values are stored internally by Cobra
	setupCmd.Flags().String("target", TargetContainer, "provisioning target: container or host")
	setupCmd.Flags().String("container", "", "name of the build container (overrides container.name)")
	setupCmd.Flags().String("image", "", "Docker image used when the container must be created")
	setupCmd.Flags().String("user", "", "unprivileged user that runs bitbake (overrides container.user)")
	setupCmd.Flags().Bool("force", false, "remove and recreate an existing container")
	setupCmd.Flags().Bool("skip-tool-check", false, "skip host tool version verification")
	setupCmd.Flags().Bool("auto-install", false, "install missing tools when the version check fails")
	setupCmd.Flags().Bool("install-yocto-deps", false, "install the full Yocto host package set")
	setupCmd.Flags().Bool("clone-poky", false, "clone the poky repository")
	setupCmd.Flags().String("clone-poky-location", TargetContainer, "where to run the clone: container or host")
	setupCmd.Flags().String("poky-dir", "", "poky checkout directory (overrides poky.dir)")
	setupCmd.Flags().String("poky-url", "", "poky repository URL (overrides poky.url)")
	setupCmd.Flags().String("poky-branch", "", "remote branch to track (overrides poky.branch)")
	setupCmd.Flags().String("poky-local", "", "local working branch (default: my-<branch>)")
	setupCmd.Flags().String("yocto-release", "", "release used to pin meta layer branches (default: poky branch)")
	setupCmd.Flags().StringSlice("meta-layers", nil, "extra layers to clone, as url#ref entries")
	setupCmd.Flags().Bool("build-image", false, "run bitbake for the target image after provisioning")
	setupCmd.Flags().String("target-image", "", "bitbake image recipe to build (overrides build.target_image)")
	setupCmd.Flags().String("machine", "", "bitbake MACHINE, e.g. k26-smk-kr (required unless set in config)")
	setupCmd.Flags().Bool("enable-hashserve", false, "append hash equivalence directives to local.conf")
	setupCmd.Flags().Bool("run-qemu", false, "boot the built image in QEMU")
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg = GetConfig()
	if err := validateConfigOrExit(cfg, "setup"); err != nil {
		return err
	}

	plan, err := newRunPlan(cfg, newSetupConfigFromCmd(cmd))
	if err != nil {
		return err
	}

	start := time.Now()
	log, err := runlog.New(cfg.Output.LogBaseDir, start)
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	defer log.Close() //nolint:errcheck // Close error not actionable in defer context

	st, err := state.Load(cfg.Output.StateFile)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	ctx := context.Background()

	log.Infof("Starting Yocto environment setup (target: %s)", plan.envLabel())
	sysinfo.Log(log)

	setupErr := executeSetup(ctx, plan, log, st, start)

	if err := st.Save(); err != nil {
		log.Warnf("Failed to save state: %v", err)
	}

	notifyRunOutcome(plan, log, setupErr == nil, time.Since(start))

	if setupErr != nil {
		log.Errorf("Setup failed: %v", setupErr)
		return setupErr
	}

	log.Infof("Setup complete in %s. Logs: %s", time.Since(start).Round(time.Second), log.Dir())
	fmt.Println("🎉 Yocto build environment is ready!")
	return nil
}

// executeSetup runs the provisioning sequence against the resolved plan.
func executeSetup(ctx context.Context, plan *runPlan, log *runlog.Logger, st *state.State, start time.Time) error {
	rootEnv, buildEnv, cleanup, err := acquireEnvironments(ctx, plan, log)
	if err != nil {
		return err
	}
	defer cleanup()
	st.RecordStep(plan.envLabel(), "environment-ready", start)

	if plan.installYoctoDeps {
		if err := installDependencies(ctx, rootEnv, log, plan); err != nil {
			return err
		}
		st.RecordStep(plan.envLabel(), "install-deps", start)
	}

	if !plan.skipToolCheck {
		if err := verifyTools(ctx, rootEnv, log, plan); err != nil {
			return err
		}
		st.RecordStep(plan.envLabel(), "verify-tools", start)
	}

	if plan.clonePoky {
		if err := clonePoky(ctx, plan, rootEnv, log); err != nil {
			return err
		}
		if plan.target == TargetContainer && plan.buildImage {
			if err := deps.FixTreeOwner(ctx, rootEnv, log, plan.pokyDir, plan.user); err != nil {
				return err
			}
		}
		st.RecordStep(plan.envLabel(), "clone-poky", start)

		if err := repo.CloneLayers(ctx, buildEnv, log, plan.pokyDir+"/sources", plan.metaLayers); err != nil {
			return err
		}
		st.RecordStep(plan.envLabel(), "clone-layers", start)
	}

	if plan.buildImage {
		if err := configureBuild(ctx, buildEnv, log, plan); err != nil {
			return err
		}
		st.RecordStep(plan.envLabel(), "configure-build", start)

		if err := buildAndVerify(ctx, buildEnv, log, st, plan); err != nil {
			st.RecordBuild(plan.envLabel(), plan.targetImage, state.ResultFailed)
			return err
		}
		st.RecordBuild(plan.envLabel(), plan.targetImage, state.ResultSucceeded)
		st.RecordStep(plan.envLabel(), "build-image", start)

		if plan.runQEMU {
			if err := bitbake.RunQEMU(ctx, buildEnv, log, plan.pokyDir, plan.machine); err != nil {
				return err
			}
		}
	}

	return nil
}

// acquireEnvironments returns the privileged environment used for package
// installs and the unprivileged one used for git and bitbake. For the host
// target both are the same environment.
func acquireEnvironments(ctx context.Context, plan *runPlan, log *runlog.Logger) (rootEnv, buildEnv execenv.Environment, cleanup func(), err error) {
	if plan.target == TargetHost {
		host := execenv.New(nil, execenv.HostTarget())
		return host, host, func() {}, nil
	}

	cli, err := docker.NewClient(cfg.Docker.SocketPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to Docker daemon: %w\nMake sure Docker is running and you have permission to access the socket", err)
	}

	if err := docker.EnsureRunning(ctx, cli, log, plan.containerName, plan.image, plan.forceRecreate); err != nil {
		_ = cli.Close()
		return nil, nil, nil, err
	}

	root := execenv.New(cli, execenv.ContainerTarget(plan.containerName, ""))

	// The unprivileged bitbake user only matters for a build. A tools-only
	// run must not create it, so everything stays on the root environment.
	build := root
	if plan.buildImage {
		if err := deps.EnsureBuildUser(ctx, root, log, plan.user); err != nil {
			_ = cli.Close()
			return nil, nil, nil, err
		}
		build = execenv.New(cli, execenv.ContainerTarget(plan.containerName, plan.user))
	}

	cleanup = func() {
		_ = cli.Close()
	}
	return root, build, cleanup, nil
}

// installDependencies installs the base tools and the Yocto host package set.
func installDependencies(ctx context.Context, env execenv.Environment, log *runlog.Logger, plan *runPlan) error {
	if err := deps.InstallBaseTools(ctx, env, log); err != nil {
		return err
	}
	if err := deps.InstallYoctoPackages(ctx, env, log); err != nil {
		return err
	}
	if plan.target == TargetContainer {
		return deps.EnsureLocaleUTF8(ctx, env, log)
	}
	return nil
}

// verifyTools checks the required tool versions, installing and re-checking
// when auto-install is enabled.
func verifyTools(ctx context.Context, env execenv.Environment, log *runlog.Logger, plan *runPlan) error {
	report := vercheck.Check(ctx, env, log, vercheck.DefaultRequirements)
	if report.AllOK() {
		return nil
	}

	if !plan.autoInstall {
		return report.Err()
	}

	log.Processf("Tool check failed, attempting automatic installation...")
	if err := installDependencies(ctx, env, log, plan); err != nil {
		return err
	}

	report = vercheck.Check(ctx, env, log, vercheck.DefaultRequirements)
	if !report.AllOK() {
		return fmt.Errorf("tool versions still insufficient after installation: %w", report.Err())
	}
	return nil
}

// clonePoky clones and checks out the poky tree, either on the host side or
// by running git inside the build environment.
func clonePoky(ctx context.Context, plan *runPlan, env execenv.Environment, log *runlog.Logger) error {
	if plan.clonePokyLocation == TargetHost {
		return repo.CloneAndCheckoutHost(ctx, log, plan.pokyDir, plan.pokyURL, plan.pokyBranch, plan.pokyLocal)
	}
	return repo.CloneAndCheckoutEnv(ctx, env, log, plan.pokyDir, plan.pokyURL, plan.pokyBranch, plan.pokyLocal)
}

// configureBuild initializes the build directory and writes the machine and
// image settings into local.conf.
func configureBuild(ctx context.Context, env execenv.Environment, log *runlog.Logger, plan *runPlan) error {
	if err := bitbake.InitBuildDir(ctx, env, log, plan.pokyDir); err != nil {
		return err
	}

	confPath := plan.pokyDir + "/build/conf/local.conf"
	if err := buildconf.SetMachine(ctx, env, log, confPath, plan.machine); err != nil {
		return err
	}
	if err := buildconf.EnableWicImage(ctx, env, log, confPath); err != nil {
		return err
	}
	if plan.enableHashserve {
		if err := buildconf.EnableHashserve(ctx, env, log, confPath); err != nil {
			return err
		}
	}

	return bitbake.AddLayers(ctx, env, log, plan.pokyDir, layerPaths(plan.metaLayers))
}

// buildAndVerify runs bitbake and checks the deploy directory for the
// expected artifacts.
func buildAndVerify(ctx context.Context, env execenv.Environment, log *runlog.Logger, _ *state.State, plan *runPlan) error {
	duration, err := bitbake.Build(ctx, env, log, plan.pokyDir, plan.targetImage)
	if err != nil {
		return err
	}
	log.Infof("bitbake finished in %s", duration.Round(time.Second))

	_, err = bitbake.VerifyArtifacts(ctx, env, log, bitbake.DeployDir(plan.pokyDir), plan.targetImage)
	return err
}

// layerPaths maps layer specs to their checkout paths relative to the poky
// directory.
func layerPaths(layers []repo.LayerSpec) []string {
	paths := make([]string, 0, len(layers))
	for _, layer := range layers {
		paths = append(paths, "sources/"+layer.Name)
	}
	return paths
}

// notifyRunOutcome sends the run summary when notifications are configured.
func notifyRunOutcome(plan *runPlan, log *runlog.Logger, succeeded bool, duration time.Duration) {
	notifier, err := notification.NewNotifier(cfg)
	if err != nil {
		log.Warnf("Notifier initialization failed: %v", err)
		return
	}
	if !notifier.IsEnabled() {
		return
	}

	target := ""
	if plan.buildImage {
		target = plan.targetImage
	}
	if err := notifier.SendRunSummary(plan.envLabel(), target, succeeded, duration, log.Dir()); err != nil {
		log.Warnf("Notification failed: %v", err)
	}
}
