package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the project configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to .kb/plugins.json",
	Long: `Write the effective configuration (defaults, existing config file,
environment and flags) to .kb/plugins.json in the current directory.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var flagYes bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "overwrite an existing file without asking")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	path := config.ConfigPath(s.cwd)
	if _, err := os.Stat(path); err == nil && !flagYes {
		if !confirm(fmt.Sprintf("%s exists. Overwrite? [Y/n] ", path)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := config.Write(s.cwd, s.cfg); err != nil {
		return err
	}
	fmt.Printf("  %s wrote %s\n", okStyle.Render("✓"), valStyle.Render(path))
	if from := s.cfg.Path(); from != "" && from != path {
		fmt.Printf("  %s %s takes precedence over it\n", warnStyle.Render("!"), from)
	}
	return nil
}
