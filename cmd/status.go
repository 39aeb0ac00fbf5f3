package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/layout"
	"github.com/kb-labs/plugins/internal/logger"
	"github.com/kb-labs/plugins/internal/pm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and installed plugin counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	configFile := s.cfg.Path()
	if configFile == "" {
		configFile = dimStyle.Render("none (defaults)")
	}
	pmName := s.cfg.PackageManager
	if packageManager, err := pm.ByName(pmName); err == nil && pmName == "auto" {
		pmName = "auto (" + packageManager.Name() + ")"
	}
	logFile := logger.LatestLogPath(logger.DefaultDir())
	if logFile == "" {
		logFile = dimStyle.Render("none")
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", labelStyle.Render("Target:  "), valStyle.Render(s.target))
	fmt.Printf("  %s %s\n", labelStyle.Render("Config:  "), configFile)
	fmt.Printf("  %s %s\n", labelStyle.Render("Registry:"), s.cfg.Registry)
	fmt.Printf("  %s %s\n", labelStyle.Render("PM:      "), pmName)
	fmt.Printf("  %s %s\n\n", labelStyle.Render("Last log:"), logFile)

	installed, err := layout.Scan(layout.OS, s.target)
	if err != nil {
		return err
	}
	counts := map[layout.Kind]int{}
	versions := 0
	for _, p := range installed {
		counts[p.State.Kind]++
		versions += len(p.State.Versions)
	}

	fmt.Printf("  %s %d\n", labelStyle.Render("Plugins: "), len(installed))
	fmt.Printf("    %s %-10s %d  %s\n", okStyle.Render("●"), layout.Versioned, counts[layout.Versioned],
		dimStyle.Render(fmt.Sprintf("(%d versions)", versions)))
	fmt.Printf("    %s %-10s %d\n", okStyle.Render("●"), layout.Flat, counts[layout.Flat])
	fmt.Printf("    %s %-10s %d\n", okStyle.Render("●"), layout.Symlinked, counts[layout.Symlinked])
	fmt.Println()
	return nil
}
