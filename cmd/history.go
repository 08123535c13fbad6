package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zorak1103/pokybox/internal/state"
)

var historyForce bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded setup run history",
	Long: `History commands for inspecting and resetting the recorded run state.

The state file tracks the last completed provisioning step and the last
build outcome for each environment, which helps diagnose interrupted runs.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs for all environments",
	Example: `  # List all recorded runs
  pokybox history list`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg = GetConfig()
		if err := validateConfigOrExit(cfg, "history"); err != nil {
			return err
		}

		st, err := state.Load(cfg.Output.StateFile)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		runs := st.All()

		// Write output to stdout; errors writing to stdout are not actionable in CLI context
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "📊 Recorded Setup Runs:")
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")

		if len(runs) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ℹ️  No runs recorded")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   State file: %s\n", cfg.Output.StateFile)
			return nil
		}

		labels := make([]string, 0, len(runs))
		for label := range runs {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "Environment\tLast Step\tLast Target\tLast Result\tStarted")
		_, _ = fmt.Fprintln(w, "-----------\t---------\t-----------\t-----------\t-------")

		for _, label := range labels {
			run := runs[label]

			target := run.LastTarget
			if target == "" {
				target = "-"
			}
			result := run.LastResult
			if result == "" {
				result = "-"
			}
			started := run.LastStarted.Format("2006-01-02 15:04:05")
			if run.LastStarted.IsZero() {
				started = "Never"
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", label, run.LastStep, target, result, started)
		}

		_ = w.Flush() // Flush buffered output; error not actionable in CLI display context
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Total: %d environment(s)\n", len(runs))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "State file: %s\n", cfg.Output.StateFile)
		if !st.LastUpdated.IsZero() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Last updated: %s\n", st.LastUpdated.Format(time.RFC3339))
		}

		return nil
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset recorded run history for all environments",
	Long: `Reset clears the recorded run history.

Setup steps are idempotent, so resetting history is always safe; the next
run simply re-verifies every step.`,
	Example: `  # Reset all recorded runs
  pokybox history reset --force`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg = GetConfig()
		if err := validateConfigOrExit(cfg, "history"); err != nil {
			return err
		}

		if !historyForce {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "❌ Aborted (use --force to confirm)")
			return nil
		}

		st, err := state.Load(cfg.Output.StateFile)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		oldCount := len(st.All())
		if err := st.ResetAll(); err != nil {
			return fmt.Errorf("failed to reset state: %w", err)
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ History reset complete")
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   Removed %d environment(s) from state\n", oldCount)
		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyResetCmd)

	historyResetCmd.Flags().BoolVar(&historyForce, "force", false, "confirm history reset")
}
