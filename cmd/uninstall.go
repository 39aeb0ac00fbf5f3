package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/installer"
	"github.com/kb-labs/plugins/internal/layout"
	"github.com/kb-labs/plugins/internal/logger"
	"github.com/kb-labs/plugins/internal/picker"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [package]...",
	Short: "Uninstall plugins",
	Long: `Uninstall plugins from the target root.

The package is resolved the same way as for install so the plugin's
publisher, name and version can be read from its package.json. Only that
version is removed unless --all is given, in which case every version goes
as long as the resolved one is installed. Flat installs and dev-links are
always removed whole.

With --pick an interactive list of installed plugins is shown instead.`,
	RunE: runUninstall,
}

var (
	flagAll  bool
	flagPick bool
)

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolVar(&flagAll, "all", false, "remove every installed version")
	uninstallCmd.Flags().BoolVar(&flagPick, "pick", false, "choose installed plugins interactively")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	if flagPick && len(args) > 0 {
		return fmt.Errorf("--pick does not take package arguments")
	}
	if !flagPick && len(args) == 0 {
		return fmt.Errorf("requires at least 1 package, or --pick")
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	log := openLog()
	defer log.Close()

	ins, err := s.installer(log)
	if err != nil {
		return err
	}

	if flagPick {
		return runPick(ins, log, s.target)
	}

	fmt.Println()
	err = runBatch(os.Stdout, log, args, func(ws *installer.Workspace, id string) error {
		sp := newSpinner(useSpinner())
		sp.attach(ins)
		sp.setLabel("Uninstalling " + id)
		sp.start()
		rm, err := ins.Uninstall(cmd.Context(), ws, s.target, id, flagAll)
		sp.stop(err)
		if err != nil {
			return err
		}
		printRemoval(rm, s.target)
		return nil
	})
	fmt.Println()
	return err
}

func runPick(ins *installer.Installer, log *logger.Logger, target string) error {
	installed, err := layout.Scan(layout.OS, target)
	if err != nil {
		return err
	}
	items := picker.Items(installed)
	if len(items) == 0 {
		fmt.Printf("  no plugins installed in %s\n", target)
		return nil
	}

	selected, err := picker.Run(items)
	if errors.Is(err, picker.ErrCancelled) {
		fmt.Println("  uninstall cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	labels := make([]string, len(selected))
	byLabel := make(map[string]picker.Item, len(selected))
	for i, it := range selected {
		labels[i] = it.Label()
		byLabel[labels[i]] = it
	}

	fmt.Println()
	err = runEach(os.Stdout, log, labels, func(label string) error {
		it := byLabel[label]
		rm, err := ins.Remove(target, it.Plugin.Publisher, it.Plugin.Name, it.Version, it.Version == "")
		if err != nil {
			return err
		}
		printRemoval(rm, target)
		return nil
	})
	fmt.Println()
	return err
}

func printRemoval(rm *installer.Removal, target string) {
	switch rm.Removed {
	case installer.RemovedNothing:
		what := rm.ID
		if rm.Version != "" {
			what += "@" + rm.Version
		}
		fmt.Printf("  %s nothing matching %s is installed in %s\n", warnStyle.Render("!"), what, target)
	case installer.RemovedLink:
		fmt.Printf("  %s removed dev-link %s\n", okStyle.Render("✓"), valStyle.Render(rm.Path))
	case installer.RemovedVersion:
		fmt.Printf("  %s removed %s@%s  %s\n", okStyle.Render("✓"), rm.ID, rm.Version, dimStyle.Render(rm.Path))
	case installer.RemovedBase:
		fmt.Printf("  %s removed %s  %s\n", okStyle.Render("✓"), rm.ID, dimStyle.Render(rm.Path))
	}
}
