package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zorak1103/pokybox/internal/docker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the build container",
	Long: `Status reports whether the configured build container exists and
whether it is running.`,
	Example: `  # Status of the configured container
  pokybox status

  # Status of a specific container
  pokybox status --container kria-build`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg = GetConfig()
		if err := validateConfigOrExit(cfg, "status"); err != nil {
			return err
		}

		containerName, _ := cmd.Flags().GetString("container")
		if containerName == "" {
			containerName = cfg.Container.Name
		}
		if containerName == "" {
			return fmt.Errorf("container name is required: set --container or container.name in the config file")
		}

		cli, err := docker.NewClient(cfg.Docker.SocketPath)
		if err != nil {
			return fmt.Errorf("failed to create Docker client: %w", err)
		}
		defer cli.Close() //nolint:errcheck // Close error not actionable in defer context

		ctx := context.Background()
		ctr, err := cli.Lookup(ctx, containerName)
		if err != nil {
			return err
		}

		// Write output to stdout; errors writing to stdout are not actionable in CLI context
		if ctr == nil {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "📦 Container %q: absent\n", containerName)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "   Run 'pokybox setup' to create it")
			return nil
		}

		icon := "🟢"
		if ctr.State != docker.StateRunning {
			icon = "🔴"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Container %q: %s\n", icon, ctr.Name, ctr.State)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   ID:    %s\n", shortID(ctr.ID))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   Image: %s\n", ctr.Image)
		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("container", "", "name of the build container (overrides container.name)")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
