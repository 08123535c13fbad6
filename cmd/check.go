package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zorak1103/pokybox/internal/docker"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/vercheck"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify required tool versions in the build environment",
	Long: `Check probes the build environment for the tools Yocto requires
(git, tar, python3, gcc, make) and compares their versions against the
documented minimums.

All tools are probed even when an earlier one fails, so a single run
reports every problem at once.`,
	Example: `  # Check the host
  pokybox check --target host

  # Check inside the configured container
  pokybox check

  # Check a specific container
  pokybox check --container kria-build`,
	RunE: runCheck,
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("target", TargetContainer, "environment to check: container or host")
	checkCmd.Flags().String("container", "", "name of the build container (overrides container.name)")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg = GetConfig()
	if err := validateConfigOrExit(cfg, "check"); err != nil {
		return err
	}

	target, _ := cmd.Flags().GetString("target")
	containerName, _ := cmd.Flags().GetString("container")
	if containerName == "" {
		containerName = cfg.Container.Name
	}

	ctx := context.Background()

	env, cleanup, err := checkEnvironment(ctx, target, containerName)
	if err != nil {
		return err
	}
	defer cleanup()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "🔍 Checking required tools in %s...\n\n", env.Label())

	report := vercheck.Check(ctx, env, nil, vercheck.DefaultRequirements)

	// Write output to stdout; errors writing to stdout are not actionable in CLI context
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "Tool\tRequired\tFound\tStatus")
	_, _ = fmt.Fprintln(w, "----\t--------\t-----\t------")
	for _, res := range report.Results {
		status := "✅ OK"
		found := res.Found
		if !res.OK {
			status = "❌ FAIL"
			if found == "" {
				found = "not found"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t>= %s\t%s\t%s\n", res.Tool, res.Required, found, status)
	}
	_ = w.Flush() // Flush buffered output; error not actionable in CLI display context

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")
	if !report.AllOK() {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "❌ %d tool(s) missing or too old\n", len(report.Failures()))
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "   Run 'pokybox setup --auto-install' to install them")
		return report.Err()
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ All required tools present")
	return nil
}

// checkEnvironment builds the environment to probe. The container target
// requires an already running container; check never creates one.
func checkEnvironment(ctx context.Context, target, containerName string) (execenv.Environment, func(), error) {
	switch target {
	case TargetHost:
		return execenv.New(nil, execenv.HostTarget()), func() {}, nil
	case TargetContainer:
		if containerName == "" {
			return nil, nil, fmt.Errorf("container name is required: set --container or container.name in the config file")
		}

		cli, err := docker.NewClient(cfg.Docker.SocketPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Docker client: %w", err)
		}

		st, err := docker.State(ctx, cli, containerName)
		if err != nil {
			_ = cli.Close()
			return nil, nil, err
		}
		if st != docker.StateRunning {
			_ = cli.Close()
			return nil, nil, fmt.Errorf("container %q is not running (state: %s): run 'pokybox setup' first", containerName, st)
		}

		return execenv.New(cli, execenv.ContainerTarget(containerName, "")), func() { _ = cli.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("invalid --target %q: must be %q or %q", target, TargetHost, TargetContainer)
	}
}
