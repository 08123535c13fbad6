// Package cmd implements the CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zorak1103/pokybox/internal/config"
)

// validateConfigOrExit validates that the configuration is properly
// initialized. Returns a user-friendly error if validation fails.
func validateConfigOrExit(cfg *config.Config, _ string) error {
	if cfg == nil {
		if errConfigLoad != nil {
			return fmt.Errorf("configuration not loaded: %w\n\nRun 'pokybox init' to create pokybox.yaml in the current directory", errConfigLoad)
		}
		return fmt.Errorf("configuration not loaded\n\nRun 'pokybox init' to create pokybox.yaml in the current directory")
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long: `Display the effective configuration that pokybox will use at runtime.

This shows the merged configuration from:
  1. Default values
  2. Configuration file (pokybox.yaml)
  3. Environment variables (highest priority)

Sensitive values like notification URLs are masked for security.`,
	Example: `  # Show current configuration
  pokybox config

  # Show with custom config file
  pokybox config --config /etc/pokybox/pokybox.yaml`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded\n\nTo get started, run: pokybox init")
		}

		fmt.Println("=== Pokybox Effective Configuration ===")
		fmt.Println()

		fmt.Println("📦 Container Configuration:")
		fmt.Printf("   Name:           %s\n", valueOrUnset(cfg.Container.Name))
		fmt.Printf("   Image:          %s\n", cfg.Container.Image)
		fmt.Printf("   Build User:     %s\n", cfg.Container.User)
		fmt.Println()

		fmt.Println("🐳 Docker Configuration:")
		fmt.Printf("   Socket Path:    %s\n", cfg.Docker.SocketPath)
		fmt.Println()

		fmt.Println("🌿 Poky Configuration:")
		fmt.Printf("   Directory:      %s\n", cfg.Poky.Dir)
		fmt.Printf("   URL:            %s\n", cfg.Poky.URL)
		fmt.Printf("   Branch:         %s\n", cfg.Poky.Branch)
		fmt.Printf("   Local Branch:   %s\n", cfg.Poky.LocalBranchName())
		fmt.Printf("   Release:        %s\n", cfg.Poky.ReleaseName())
		fmt.Println()

		fmt.Println("🔨 Build Configuration:")
		fmt.Printf("   Target Image:   %s\n", cfg.Build.TargetImage)
		fmt.Printf("   Machine:        %s\n", valueOrUnset(cfg.Build.Machine))
		if len(cfg.Build.MetaLayers) > 0 {
			fmt.Printf("   Meta Layers:    %s\n", strings.Join(cfg.Build.MetaLayers, ", "))
		} else {
			fmt.Printf("   Meta Layers:    (release defaults)\n")
		}
		fmt.Printf("   Hashserve:      %v\n", cfg.Build.EnableHashserve)
		fmt.Printf("   Run QEMU:       %v\n", cfg.Build.RunQEMU)
		fmt.Println()

		fmt.Println("🔔 Notification Configuration:")
		fmt.Printf("   Enabled:        %v\n", cfg.Notification.Enabled)
		fmt.Printf("   Shoutrrr URL:   %s\n", maskShoutrrrURL(cfg.Notification.ShoutrrURL))
		fmt.Println()

		fmt.Println("📁 Output Configuration:")
		fmt.Printf("   Log Base Dir:   %s\n", cfg.Output.LogBaseDir)
		fmt.Printf("   State File:     %s\n", cfg.Output.StateFile)
		fmt.Println()

		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(configCmd)
}

func valueOrUnset(s string) string {
	if s == "" {
		return "❌ Not set"
	}
	return s
}

// maskShoutrrrURL masks sensitive parts of Shoutrrr URL
func maskShoutrrrURL(url string) string {
	if url == "" {
		return "❌ Not configured"
	}

	// Extract service type (e.g., discord://, slack://, smtp://)
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return "✅ Configured (invalid format)"
	}

	service := parts[0]
	// Mask the credentials/tokens
	return fmt.Sprintf("✅ Configured (%s://***)", service)
}
