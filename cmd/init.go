package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zorak1103/pokybox/internal/templates"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pokybox configuration files",
	Long: `Init creates the configuration files pokybox needs.

This command will create:
  - pokybox.yaml (sample configuration file)
  - .env (environment variable template)

Run this once when setting up pokybox for the first time.`,
	Example: `  # Initialize in current directory
  pokybox init

  # Force overwrite existing files
  pokybox init --force`,
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println("🔧 Initializing pokybox...")

		files := map[string][]byte{
			"pokybox.yaml": templates.ConfigYAML,
			".env":         templates.EnvFile,
		}

		for filename, content := range files {
			if _, err := os.Stat(filename); err == nil && !initForce {
				fmt.Printf("⚠️  Skipping %s (already exists, use --force to overwrite)\n", filename)
				continue
			}

			if err := os.WriteFile(filename, content, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", filename, err)
			}

			fmt.Printf("✅ Created %s\n", filename)
		}

		fmt.Println("\n🎉 Initialization complete!")
		fmt.Println("\n📝 Next steps:")
		fmt.Println("   1. Edit pokybox.yaml to set your container name and machine")
		fmt.Println("   2. Run 'pokybox check' to verify the build environment tools")
		fmt.Println("   3. Run 'pokybox setup --clone-poky --install-yocto-deps' to provision")
		fmt.Println("   4. Add --build-image to build your first image")

		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing configuration files")
}
